package validation

import "github.com/talk2dom/web/internal/access"

// CreateProjectRequest mirrors the fields needed for create project validation.
type CreateProjectRequest struct {
	Name        string
	Description *string
}

// ValidateCreateProjectRequest validates the fields of a create project request.
func ValidateCreateProjectRequest(req CreateProjectRequest) []FieldError {
	var errs []FieldError

	errs, ok := required(errs, "name", req.Name)
	if ok {
		errs = maxLen(errs, "name", req.Name, 100)
	}
	if req.Description != nil {
		errs = maxLen(errs, "description", *req.Description, 500)
	}

	return errs
}

// ValidateAddMemberRequest validates a member add. Owners cannot be added;
// an empty role means member.
func ValidateAddMemberRequest(emailAddr string, role access.Role) []FieldError {
	errs := email(nil, "email", emailAddr)
	if role != "" && role != access.RoleAdmin && role != access.RoleMember {
		errs = append(errs, FieldError{Field: "role", Message: `role must be "admin" or "member"`})
	}
	return errs
}

// ValidateCreateInviteRequest validates an invite.
func ValidateCreateInviteRequest(emailAddr string) []FieldError {
	return email(nil, "email", emailAddr)
}

// ValidateCreateAPIKeyRequest validates an API key create.
func ValidateCreateAPIKeyRequest(name *string) []FieldError {
	if name == nil {
		return nil
	}
	return maxLen(nil, "name", *name, 100)
}
