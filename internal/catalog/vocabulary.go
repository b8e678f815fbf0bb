package catalog

import (
	"strconv"
	"time"
)

// Option labels shared by several questions.
const (
	Other        = "Other"
	OtherSpecify = "Other (please specify)"
	None         = "None"

	// NoneOfTheAbove is the purchase-type sentinel. Selecting it excludes
	// every other purchase type and skips the vehicle questions.
	NoneOfTheAbove = "10. None of the above"

	// EarliestPurchaseYear is the last entry of the year drop-down.
	EarliestPurchaseYear = 1990

	// PositiveReasonThreshold is the lowest recommendation rating that
	// switches the reason list to the positive vocabulary.
	PositiveReasonThreshold = 7
)

// PurchaseTypes lists the purchase-type labels in display order.
var PurchaseTypes = []string{
	"1. Cars/SUVs",
	"2. Scooter/Moped",
	"3. Motorcycle",
	"4. Electric Scooter",
	"5. Electric Car",
	"6. Auto Rickshaw",
	"7. Pickup/Light Commercial",
	"8. Truck/Bus",
	"9. Bicycle",
	NoneOfTheAbove,
}

var AgeGroups = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

var Genders = []string{"Male", "Female", "Non-binary", "Prefer not to say"}

var Cities = []string{
	"Ahmedabad",
	"Bengaluru",
	"Chennai",
	"Delhi",
	"Hyderabad",
	"Jaipur",
	"Kolkata",
	"Mumbai",
	"Pune",
	Other,
}

var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var Conditions = []string{"Brand New", "Used"}

var PositiveReasons = []string{
	"Reliability",
	"Fuel efficiency",
	"Comfort",
	"Performance",
	"Design",
	"After-sales service",
	"Value for money",
	Other,
}

var NegativeReasons = []string{
	"Poor reliability",
	"High maintenance cost",
	"Low fuel efficiency",
	"Uncomfortable",
	"Poor after-sales service",
	"Overpriced",
	Other,
}

// Years returns the purchase-year options, newest first, down to
// EarliestPurchaseYear.
func Years(now time.Time) []string {
	current := now.Year()
	if current < EarliestPurchaseYear {
		return nil
	}
	years := make([]string, 0, current-EarliestPurchaseYear+1)
	for y := current; y >= EarliestPurchaseYear; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// Reasons picks the reason vocabulary for a recommendation rating. An unset
// or unparseable rating counts as zero.
func Reasons(rating string) []string {
	n, err := strconv.Atoi(rating)
	if err != nil || n < PositiveReasonThreshold {
		return NegativeReasons
	}
	return PositiveReasons
}
