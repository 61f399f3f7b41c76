package types

import "errors"

// ErrCityNotFound is returned by city stores when no city matches the name.
var ErrCityNotFound = errors.New("city not found")

// City is the snapshot of a city record read from the city store.
type City struct {
	Name          string   `json:"name" dynamodbav:"CityName"`
	CountryCode   string   `json:"country_code" dynamodbav:"CountryCode"`
	CountryName   string   `json:"country_name" dynamodbav:"CountryName"`
	TopThingsToDo []string `json:"top_things_to_do" dynamodbav:"TopThingsToDo"`
}

// QueryParameters are the user's itinerary preferences from the city page form.
// Days is zero when the user did not give a day count.
type QueryParameters struct {
	Days      int      `json:"days,omitempty"`
	Children  bool     `json:"children"`
	Car       bool     `json:"car"`
	Interests []string `json:"interests"`
}
