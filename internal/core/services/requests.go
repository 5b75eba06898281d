package services

import (
	"strconv"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// NewStationRequest normalises raw station query parameters. The
// reserved parameters stay in Params, the services delete them before
// predicate translation.
func NewStationRequest(params domain.QueryParams) (domain.StationRequest, error) {
	req := domain.StationRequest{Params: params, Level: domain.LevelStation}
	lowered := lowerParams(params)

	if raw := lowered.First("level"); raw != "" {
		level, err := domain.ParseDetailLevel(raw)
		if err != nil {
			return req, err
		}
		req.Level = level
	}

	format, err := domain.ParseOutputFormat(lowered.First("format"))
	if err != nil {
		return req, err
	}
	req.Format = format

	if req.NoData, err = domain.ParseNoData(lowered.First("nodata")); err != nil {
		return req, err
	}

	if req.Radial, err = parseRadial(lowered); err != nil {
		return req, err
	}
	return req, nil
}

// NewEventRequest normalises raw event query parameters.
func NewEventRequest(params domain.QueryParams) (domain.EventRequest, error) {
	req := domain.EventRequest{Params: params}
	lowered := lowerParams(params)

	order, err := domain.ParseEventOrder(lowered.First("orderby"))
	if err != nil {
		return req, err
	}
	req.OrderBy = order

	if req.Format, err = domain.ParseOutputFormat(lowered.First("format")); err != nil {
		return req, err
	}

	if req.NoData, err = domain.ParseNoData(lowered.First("nodata")); err != nil {
		return req, err
	}

	if req.Radial, err = parseRadial(lowered); err != nil {
		return req, err
	}
	return req, nil
}

// NewDataselectRequest normalises raw dataselect query parameters.
func NewDataselectRequest(params domain.QueryParams) (domain.DataselectRequest, error) {
	req := domain.DataselectRequest{Params: params}

	var err error
	if req.NoData, err = domain.ParseNoData(lowerParams(params).First("nodata")); err != nil {
		return req, err
	}
	return req, nil
}

// parseRadial builds the radial constraint when any radius parameter is
// present. Radii require a centre point.
func parseRadial(params domain.QueryParams) (*domain.RadialConstraint, error) {
	minRaw := params.First("minradius")
	maxRaw := params.First("maxradius")
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}

	c := &domain.RadialConstraint{}
	var err error
	if minRaw != "" {
		if c.MinRadius, err = radialFloat("minradius", minRaw); err != nil {
			return nil, err
		}
	}
	if maxRaw != "" {
		if c.MaxRadius, err = radialFloat("maxradius", maxRaw); err != nil {
			return nil, err
		}
	}

	latRaw := firstValue(append(params["latitude"], params["lat"]...))
	lonRaw := firstValue(append(params["longitude"], params["lon"]...))
	if latRaw == "" || lonRaw == "" {
		return nil, &domain.ParameterError{Name: "minradius", Value: minRaw + maxRaw,
			Reason: "radius requires latitude and longitude"}
	}

	lat, err := radialFloat("latitude", latRaw)
	if err != nil {
		return nil, err
	}
	lon, err := radialFloat("longitude", lonRaw)
	if err != nil {
		return nil, err
	}
	c.Latitude, c.Longitude = *lat, *lon
	return c, nil
}

func radialFloat(name, raw string) (*float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &domain.ParameterError{Name: name, Value: raw, Reason: "not a number"}
	}
	return &v, nil
}
