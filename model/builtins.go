package model

import "time"

// Names of the built-in identity models.
const (
	UserModel        = "User"
	AccessTokenModel = "AccessToken"
	ACLModel         = "ACL"
	RoleMappingModel = "RoleMapping"
	RoleModel        = "Role"
)

// DefaultTokenTTL is the AccessToken lifetime in seconds (two weeks).
const DefaultTokenTTL = 1209600

// Now returns the current time, the default for creation timestamps.
func Now() any { return time.Now().UTC() }

// User is the built-in account model. Only its schema is provided; password
// hashing and login flows are outside this package.
func User() Definition {
	return MustDefine(UserModel,
		Field{Name: "realm", Type: TypeString},
		Field{Name: "username", Type: TypeString},
		Field{Name: "password", Type: TypeString, Required: true, Hidden: true},
		Field{Name: "email", Type: TypeString, Required: true},
		Field{Name: "emailVerified", Type: TypeBoolean},
		Field{Name: "verificationToken", Type: TypeString, Hidden: true},
	)
}

// AccessToken is the built-in session token model.
func AccessToken() Definition {
	return MustDefine(AccessTokenModel,
		Field{Name: "ttl", Type: TypeNumber, Default: DefaultTokenTTL},
		Field{Name: "scopes", Type: TypeArray},
		Field{Name: "created", Type: TypeDate, DefaultFn: Now},
		Field{Name: "userId", Type: TypeString},
	)
}

// ACL is the built-in access control entry model.
func ACL() Definition {
	return MustDefine(ACLModel,
		Field{Name: "model", Type: TypeString},
		Field{Name: "property", Type: TypeString},
		Field{Name: "accessType", Type: TypeString},
		Field{Name: "permission", Type: TypeString},
		Field{Name: "principalType", Type: TypeString},
		Field{Name: "principalId", Type: TypeString},
	)
}

// RoleMapping is the built-in principal-to-role model.
func RoleMapping() Definition {
	return MustDefine(RoleMappingModel,
		Field{Name: "principalType", Type: TypeString},
		Field{Name: "principalId", Type: TypeString},
		Field{Name: "roleId", Type: TypeString},
	)
}

// Role is the built-in role model.
func Role() Definition {
	return MustDefine(RoleModel,
		Field{Name: "name", Type: TypeString, Required: true},
		Field{Name: "description", Type: TypeString},
		Field{Name: "created", Type: TypeDate, DefaultFn: Now},
		Field{Name: "modified", Type: TypeDate, DefaultFn: Now},
	)
}

// BuiltIns returns the identity models in registration order.
func BuiltIns() []Definition {
	return []Definition{User(), AccessToken(), ACL(), RoleMapping(), Role()}
}
