package enums

// UserRole identifies which side of the marketplace an account acts for.
type UserRole string

const (
	UserRoleCustomer    UserRole = "customer"
	UserRoleDistributor UserRole = "distributor"
	UserRoleAdmin       UserRole = "admin"
)

var userRoles = []UserRole{UserRoleCustomer, UserRoleDistributor, UserRoleAdmin}

func (v UserRole) String() string { return string(v) }

func (v UserRole) IsValid() bool {
	_, err := ParseUserRole(string(v))
	return err == nil
}

func ParseUserRole(value string) (UserRole, error) {
	return parse("user role", value, userRoles)
}
