package authcore

import "strings"

// normalizeEmail trims surrounding whitespace and lowercases the address.
// Applied before validation and before every store lookup so the same mailbox
// maps to the same principal regardless of input casing.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailLooksValid applies a minimal shape check: one "@" with non-empty local
// part and a domain containing a dot. Deliverability is the Notifier's
// problem, not ours.
func emailLooksValid(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '@') >= 0 {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

func validateLogin(req LoginRequest) *ValidationError {
	fields := map[string][]string{}

	if req.Email == "" {
		fields["email"] = append(fields["email"], "required")
	} else if !emailLooksValid(req.Email) {
		fields["email"] = append(fields["email"], "invalid format")
	}

	if req.Password == "" {
		fields["password"] = append(fields["password"], "required")
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func validateLogout(req LogoutRequest) *ValidationError {
	fields := map[string][]string{}

	if req.Email == "" {
		fields["email"] = append(fields["email"], "required")
	} else if !emailLooksValid(req.Email) {
		fields["email"] = append(fields["email"], "invalid format")
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func validateStartVerification(email string) *ValidationError {
	fields := map[string][]string{}

	if email == "" {
		fields["email"] = append(fields["email"], "required")
	} else if !emailLooksValid(email) {
		fields["email"] = append(fields["email"], "invalid format")
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
