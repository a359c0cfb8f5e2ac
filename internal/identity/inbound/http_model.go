package inbound

import "net/http"

type ProvisionRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Clearance  int    `json:"clearance"`
	WithoutMFA bool   `json:"without_mfa"`
}

type ProvisionResponse struct {
	Username  string `json:"username"`
	Clearance int    `json:"clearance"`
	Label     string `json:"clearance_label"`
	MFASecret string `json:"mfa_secret,omitempty"`
	MFAURI    string `json:"mfa_uri,omitempty"`
}

func (ProvisionResponse) StatusCode() int { return http.StatusCreated }

func (ProvisionResponse) Message() string {
	return "Account created. Store the second-factor secret now, it is not shown again."
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code"`
}

type LoginResponse struct {
	Username  string `json:"username"`
	Clearance int    `json:"clearance"`
	Label     string `json:"clearance_label"`
}

func (LoginResponse) Message() string { return "Authenticated" }

type CheckAccessRequest struct {
	Classification int    `json:"classification" validate:"min=0,max=3"`
	Mode           string `json:"mode" validate:"required,oneof=read write append"`
}

type CheckAccessResponse struct {
	Allowed        bool   `json:"allowed"`
	Clearance      int    `json:"clearance"`
	Classification int    `json:"classification"`
	Mode           string `json:"mode"`
}

type ReleaseLockoutResponse struct{}

func (ReleaseLockoutResponse) StatusCode() int { return http.StatusNoContent }
