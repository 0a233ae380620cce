package auth

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsAdmin reports whether email is the configured administrator email.
// The comparison is case-sensitive and an empty admin email matches nobody.
func IsAdmin(email, adminEmail string) bool {
	return adminEmail != "" && email == adminEmail
}

func RoleFor(email, adminEmail string) string {
	if IsAdmin(email, adminEmail) {
		return RoleAdmin
	}
	return RoleUser
}
