package composer

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

// BuildItineraryPrompt renders the itinerary request sent to the text model.
// Clauses for unset parameters are left out entirely.
func BuildItineraryPrompt(city types.City, params types.QueryParameters) string {
	var b strings.Builder

	b.WriteString("Give me an itinerary")
	if params.Days > 0 {
		fmt.Fprintf(&b, " for %d days", params.Days)
	}
	fmt.Fprintf(&b, " for %s, %s", city.Name, city.CountryName)
	if params.Children {
		b.WriteString(", with children")
	}
	b.WriteString(". ")

	if params.Car {
		b.WriteString("I have a car. ")
	}
	if len(params.Interests) > 0 {
		fmt.Fprintf(&b, "I am interested in %s. ", strings.Join(params.Interests, ", "))
	}
	fmt.Fprintf(&b, "Consider these things to do %s.", strings.Join(city.TopThingsToDo, ", "))

	return b.String()
}
