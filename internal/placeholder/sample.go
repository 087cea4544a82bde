// Package placeholder substitutes {{dotted.path}} tokens in template strings
// with values from a fixed sample recipient.
package placeholder

// SchemaVersion identifies the set of recognised placeholder paths. Bump it
// whenever Paths changes.
const SchemaVersion = 1

// Path is a dotted placeholder path such as "user.firstName".
type Path string

// Recognised placeholder paths.
const (
	UserFirstName       Path = "user.firstName"
	UserLastName        Path = "user.lastName"
	UserEmail           Path = "user.email"
	FacilityName        Path = "facility.name"
	FacilityID          Path = "facility.id"
	FacilityUtilityName Path = "facility.utilityName"
)

// Paths lists every recognised placeholder path.
var Paths = []Path{
	UserFirstName,
	UserLastName,
	UserEmail,
	FacilityName,
	FacilityID,
	FacilityUtilityName,
}

// Token returns the literal token form, e.g. "{{user.firstName}}".
func (p Path) Token() string {
	return "{{" + string(p) + "}}"
}

// User is the recipient section of the sample data.
type User struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Email     string `json:"email" yaml:"email"`
}

// Facility is the facility section of the sample data.
type Facility struct {
	Name        string `json:"name" yaml:"name"`
	ID          string `json:"id" yaml:"id"`
	UtilityName string `json:"utilityName" yaml:"utilityName"`
}

// Context is the data placeholders resolve against.
type Context struct {
	User     User     `json:"user" yaml:"user"`
	Facility Facility `json:"facility" yaml:"facility"`
}

// Sample returns the stand-in recipient used for every preview.
func Sample() Context {
	return Context{
		User: User{
			FirstName: "John",
			LastName:  "Doe",
			Email:     "john.doe@example.com",
		},
		Facility: Facility{
			Name:        "Solar Farm Alpha",
			ID:          "FAC-001",
			UtilityName: "National Grid",
		},
	}
}

// Lookup returns the value for p and whether p is a recognised path.
func (c Context) Lookup(p Path) (string, bool) {
	switch p {
	case UserFirstName:
		return c.User.FirstName, true
	case UserLastName:
		return c.User.LastName, true
	case UserEmail:
		return c.User.Email, true
	case FacilityName:
		return c.Facility.Name, true
	case FacilityID:
		return c.Facility.ID, true
	case FacilityUtilityName:
		return c.Facility.UtilityName, true
	}
	return "", false
}
