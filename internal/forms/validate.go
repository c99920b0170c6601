package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form names as they appear in the form-name field and in metrics.
const (
	FormHeroSignup  = "newsletter-hero"
	FormNewsletter  = "newsletter"
	FormPartnership = "partnership"
	FormRSVP        = "rsvp"
)

var (
	SubscriberCategories = []string{"guest", "vendor", "planner", "other"}
	PartnershipTypes     = []string{"sponsorship", "vendor", "media", "venue", "other"}
	AttendanceChoices    = []string{"yes", "no", "maybe"}
)

// emailShape is a shape check only: something@something.tld.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}

// Submission is one filled-in form, ready to hand to a sink.
type Submission interface {
	FormName() string
	Values() url.Values
}

type HeroSignup struct {
	Email string `json:"email" validate:"required,emailshape"`
}

func (HeroSignup) FormName() string { return FormHeroSignup }

func (s HeroSignup) Values() url.Values {
	return url.Values{"email": {s.Email}}
}

// SubscriptionRequest is the full newsletter signup.
type SubscriptionRequest struct {
	Email     string `json:"email" validate:"required,emailshape"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	Category  string `json:"category,omitempty" validate:"omitempty,category"`
}

func (SubscriptionRequest) FormName() string { return FormNewsletter }

func (s SubscriptionRequest) Values() url.Values {
	v := url.Values{}
	setIf(v, "email", s.Email)
	setIf(v, "firstName", s.FirstName)
	setIf(v, "category", s.Category)
	return v
}

type PartnershipInquiry struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,emailshape"`
	Organization    string `json:"organization,omitempty" validate:"max=200"`
	PartnershipType string `json:"partnershipType" validate:"required,partnershiptype"`
	Message         string `json:"message,omitempty" validate:"max=5000"`
}

func (PartnershipInquiry) FormName() string { return FormPartnership }

func (p PartnershipInquiry) Values() url.Values {
	v := url.Values{}
	setIf(v, "name", p.Name)
	setIf(v, "email", p.Email)
	setIf(v, "organization", p.Organization)
	setIf(v, "partnershipType", p.PartnershipType)
	setIf(v, "message", p.Message)
	return v
}

// RSVP needs a name, an attendance choice and at least one way to reach the guest.
type RSVP struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email,omitempty" validate:"required_without=Phone,omitempty,emailshape"`
	Phone      string `json:"phone,omitempty" validate:"required_without=Email,omitempty,max=40"`
	Attendance string `json:"attendance" validate:"required,attendance"`
	Guests     int    `json:"guests,omitempty" validate:"min=0,max=20"`
	Dietary    string `json:"dietary,omitempty" validate:"max=500"`
	Message    string `json:"message,omitempty" validate:"max=2000"`
}

func (RSVP) FormName() string { return FormRSVP }

func (r RSVP) Values() url.Values {
	v := url.Values{}
	setIf(v, "name", r.Name)
	setIf(v, "email", r.Email)
	setIf(v, "phone", r.Phone)
	setIf(v, "attendance", r.Attendance)
	if r.Guests > 0 {
		v.Set("guests", strconv.Itoa(r.Guests))
	}
	setIf(v, "dietary", r.Dietary)
	setIf(v, "message", r.Message)
	return v
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// ValidationError maps field names (as submitted) to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("emailshape", func(fl validator.FieldLevel) bool { return ValidEmail(fl.Field().String()) })
	must("category", enum(SubscriberCategories))
	must("partnershiptype", enum(PartnershipTypes))
	must("attendance", enum(AttendanceChoices))
	return v
}

func enum(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// Validate checks a submission. Failures are returned as *ValidationError.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = message(fe)
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "required_without":
		return "Please provide an email or phone number."
	case "emailshape":
		return "Please enter a valid email address."
	case "category":
		return "Please choose one of: " + strings.Join(SubscriberCategories, ", ") + "."
	case "partnershiptype":
		return "Please choose one of: " + strings.Join(PartnershipTypes, ", ") + "."
	case "attendance":
		return "Please let us know if you can attend."
	case "max":
		return "Please keep this under " + fe.Param() + " characters."
	case "min":
		return "Please enter at least " + fe.Param() + "."
	}
	return "Invalid value."
}

// Decode builds a submission from urlencoded form values using the form-name
// discriminant. Unknown form names return an error.
func Decode(values url.Values) (Submission, error) {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }
	switch name := get("form-name"); name {
	case FormRSVP:
		r := RSVP{
			Name:       get("name"),
			Email:      get("email"),
			Phone:      get("phone"),
			Attendance: get("attendance"),
			Dietary:    get("dietary"),
			Message:    get("message"),
		}
		if g := get("guests"); g != "" {
			n, err := strconv.Atoi(g)
			if err != nil {
				return nil, &ValidationError{Fields: map[string]string{"guests": "Please enter a number."}}
			}
			r.Guests = n
		}
		return r, nil
	case FormNewsletter:
		return SubscriptionRequest{Email: get("email"), FirstName: get("firstName"), Category: get("category")}, nil
	case FormHeroSignup:
		return HeroSignup{Email: get("email")}, nil
	case FormPartnership:
		return PartnershipInquiry{
			Name:            get("name"),
			Email:           get("email"),
			Organization:    get("organization"),
			PartnershipType: get("partnershipType"),
			Message:         get("message"),
		}, nil
	case "":
		return nil, fmt.Errorf("missing form-name")
	default:
		return nil, fmt.Errorf("unknown form %q", name)
	}
}

// Normalize trims surrounding whitespace from every string field.
func Normalize(s Submission) Submission {
	switch v := s.(type) {
	case HeroSignup:
		v.Email = strings.TrimSpace(v.Email)
		return v
	case SubscriptionRequest:
		v.Email = strings.TrimSpace(v.Email)
		v.FirstName = strings.TrimSpace(v.FirstName)
		v.Category = strings.TrimSpace(v.Category)
		return v
	case PartnershipInquiry:
		v.Name = strings.TrimSpace(v.Name)
		v.Email = strings.TrimSpace(v.Email)
		v.Organization = strings.TrimSpace(v.Organization)
		v.PartnershipType = strings.TrimSpace(v.PartnershipType)
		v.Message = strings.TrimSpace(v.Message)
		return v
	case RSVP:
		v.Name = strings.TrimSpace(v.Name)
		v.Email = strings.TrimSpace(v.Email)
		v.Phone = strings.TrimSpace(v.Phone)
		v.Attendance = strings.TrimSpace(v.Attendance)
		v.Dietary = strings.TrimSpace(v.Dietary)
		v.Message = strings.TrimSpace(v.Message)
		return v
	}
	return s
}
