// Package builtin provides the capabilities shipped with taskflow. They are
// small, dependency-free implementations for demos and smoke tests.
package builtin

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/kbukum/taskflow/capability"
)

// Capability names.
const (
	TimeNow    = "time.now"
	Weather    = "weather.lookup"
	Navigation = "navigation.navigate"
	Echo       = "echo"
	Sleep      = "sleep"
)

// Register adds every builtin capability to reg.
func Register(reg *capability.Registry) error {
	entries := []struct {
		cap  capability.Capability
		meta capability.Metadata
	}{
		{NewTimeNow(time.Now), capability.Metadata{
			Description: "Current time in a timezone",
			Provides:    []string{"time", "timezone"},
		}},
		{NewWeather(), capability.Metadata{
			Description: "Weather conditions for a city",
			Provides:    []string{"city", "conditions", "temperature_c"},
		}},
		{NewNavigation(), capability.Metadata{
			Description: "Route to a destination, annotated with conditions when known",
			Provides:    []string{"route", "eta_minutes"},
		}},
		{NewEcho(), capability.Metadata{
			Description: "Returns its inputs unchanged",
		}},
		{NewSleep(), capability.Metadata{
			Description: "Waits for a duration, honoring cancellation",
			Provides:    []string{"slept"},
		}},
	}
	for _, e := range entries {
		if err := reg.Register(e.cap, e.meta); err != nil {
			return err
		}
	}
	return nil
}

// NewTimeNow reports the current time, optionally in the IANA zone given
// by the "timezone" param.
func NewTimeNow(now func() time.Time) capability.Capability {
	return capability.Sync(TimeNow, func(params map[string]any) (any, error) {
		t := now()
		zone, _ := params["timezone"].(string)
		if zone != "" {
			loc, err := time.LoadLocation(zone)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q", zone)
			}
			t = t.In(loc)
		}
		return map[string]any{
			"time":     t.Format(time.RFC3339),
			"timezone": t.Location().String(),
		}, nil
	})
}

// WeatherRequest is the input of weather.lookup.
type WeatherRequest struct {
	City string `json:"city"`
}

// WeatherReport is the output of weather.lookup.
type WeatherReport struct {
	City         string `json:"city"`
	Conditions   string `json:"conditions"`
	TemperatureC int    `json:"temperature_c"`
}

var conditions = []string{"clear", "cloudy", "rain", "snow", "fog", "wind"}

// NewWeather returns a deterministic weather source keyed by city name.
func NewWeather() capability.Capability {
	return capability.Typed(Weather, func(_ context.Context, in WeatherRequest) (WeatherReport, error) {
		city := strings.TrimSpace(in.City)
		if city == "" {
			return WeatherReport{}, fmt.Errorf("city is required")
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.ToLower(city)))
		sum := h.Sum32()
		return WeatherReport{
			City:         city,
			Conditions:   conditions[sum%uint32(len(conditions))],
			TemperatureC: int(sum%45) - 10,
		}, nil
	})
}

// NavigationRequest is the input of navigation.navigate. City and
// Conditions are usually propagated from weather.lookup.
type NavigationRequest struct {
	Destination string `json:"destination"`
	From        string `json:"from"`
	City        string `json:"city"`
	Conditions  string `json:"conditions"`
}

// Route is the output of navigation.navigate.
type Route struct {
	Route      string `json:"route"`
	ETAMinutes int    `json:"eta_minutes"`
	Advisory   string `json:"advisory,omitempty"`
}

// NewNavigation plans a route between two places.
func NewNavigation() capability.Capability {
	return capability.Typed(Navigation, func(_ context.Context, in NavigationRequest) (Route, error) {
		dest := in.Destination
		if dest == "" {
			dest = in.City
		}
		if dest == "" {
			return Route{}, fmt.Errorf("destination is required")
		}
		from := in.From
		if from == "" {
			from = "current location"
		}

		eta := 10 + len(dest)*3
		r := Route{Route: from + " -> " + dest}
		switch in.Conditions {
		case "rain", "fog":
			eta += eta / 4
			r.Advisory = "reduced visibility, allow extra time"
		case "snow":
			eta += eta / 2
			r.Advisory = "snow on route"
		}
		r.ETAMinutes = eta
		return r, nil
	})
}

// NewEcho returns its params as its output.
func NewEcho() capability.Capability {
	return capability.New(Echo, func(_ context.Context, params map[string]any) (any, error) {
		out := make(map[string]any, len(params))
		for k, v := range params {
			out[k] = v
		}
		return out, nil
	})
}

// SleepRequest is the input of sleep.
type SleepRequest struct {
	Duration time.Duration `json:"duration"`
}

// NewSleep waits for the "duration" param or until its context ends.
func NewSleep() capability.Capability {
	return capability.Typed(Sleep, func(ctx context.Context, in SleepRequest) (map[string]any, error) {
		timer := time.NewTimer(in.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return map[string]any{"slept": in.Duration.String()}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}
