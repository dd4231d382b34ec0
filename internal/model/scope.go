package model

// Scope is the tenant/brand ownership boundary every operation runs inside.
type Scope struct {
	TenantID string
	BrandID  string
}

func (s Scope) Empty() bool {
	return s.TenantID == "" || s.BrandID == ""
}
