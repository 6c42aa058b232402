package requests

type PINVerifyRequest struct {
	PIN string `json:"pin" form:"pin"`
}

type PINSetupRequest struct {
	PIN        string `json:"pin" form:"pin"`
	ConfirmPIN string `json:"confirmPin" form:"confirmPin"`
}

type PINChangeRequest struct {
	CurrentPIN string `json:"currentPin" form:"currentPin"`
	NewPIN     string `json:"newPin" form:"newPin"`
	ConfirmPIN string `json:"confirmPin" form:"confirmPin"`
}

type PINResetRequest struct {
	RecoveryToken string `json:"recoveryToken" form:"recoveryToken"`
	NewPIN        string `json:"newPin" form:"newPin"`
	ConfirmPIN    string `json:"confirmPin" form:"confirmPin"`
}
