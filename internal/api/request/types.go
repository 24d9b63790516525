package request

// StartRunRequest is the request body for starting a run
type StartRunRequest struct {
	Alias string `json:"alias,omitempty"`
}

// ActionRequest is the request body for one puzzle interaction
type ActionRequest struct {
	Type   string `json:"type"`
	Item   string `json:"item,omitempty"`
	Target string `json:"target,omitempty"`
	Value  int    `json:"value,omitempty"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
}

// PortalRequest is the request body for submitting the combined flags
type PortalRequest struct {
	Combination string `json:"combination"`
}

// RegistrationRequest is the request body for recording a completion
type RegistrationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
