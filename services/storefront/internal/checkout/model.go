package checkout

import (
	"errors"
	"regexp"
	"strings"
)

type Step string

const (
	StepContact  Step = "contact"
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
)

var steps = []Step{StepContact, StepShipping, StepPayment}

func (s Step) index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool { return s.index() >= 0 }

const (
	InfoKey = "ref_checkout_info"
	StepKey = "ref_checkout_step"
)

const (
	msgInvalidEmail     = "please enter a valid email."
	msgShippingRequired = "please fill out all required fields."
	msgEmptyBag         = "your bag is empty."
	msgMissingPriceID   = "one or more items are missing a stripe price id."
)

var (
	ErrSubmitInProgress   = errors.New("checkout: payment submit already in progress")
	ErrPaymentUnavailable = errors.New("checkout: there was a problem creating the payment session")
	ErrUnknownStep        = errors.New("checkout: unknown step")
)

// ValidationError is scoped to the accordion section that failed.
type ValidationError struct {
	Section Step
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Section) + ": " + e.Message
}

type Address struct {
	First   string `json:"first"`
	Last    string `json:"last"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (a Address) trimmed() Address {
	t := strings.TrimSpace
	return Address{
		First: t(a.First), Last: t(a.Last),
		Line1: t(a.Line1), Line2: t(a.Line2),
		City: t(a.City), State: t(a.State),
		Zip: t(a.Zip), Country: t(a.Country),
	}
}

// Info is what the visitor typed; persisted as entered (trimmed) whether or
// not it validates.
type Info struct {
	Email    string  `json:"email"`
	Shipping Address `json:"shipping"`
}

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && emailRE.MatchString(s)
}

// ShippingComplete requires every field except line2.
func ShippingComplete(a Address) bool {
	a = a.trimmed()
	for _, v := range []string{a.First, a.Last, a.Line1, a.City, a.State, a.Zip, a.Country} {
		if v == "" {
			return false
		}
	}
	return true
}
