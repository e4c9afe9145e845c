package dto

// ItemDecision is one checklist item verdict inside a recorder payload. Valid
// is a pointer so an explicit false is distinguishable from an omitted item.
type ItemDecision struct {
	ItemID  string `json:"itemId" binding:"required"`
	Valid   *bool  `json:"valid" binding:"required"`
	Comment string `json:"comment"`
}

// OperationTypeValidationRequest is the CB "type d'opération" sub-validation:
// the operation classification plus the supporting-document checklist.
type OperationTypeValidationRequest struct {
	TypeOperation   string         `json:"typeOperation" binding:"required"`
	NatureOperation string         `json:"natureOperation" binding:"required"`
	Items           []ItemDecision `json:"items" binding:"required"`
	Commentaire     string         `json:"commentaire"`
}

// ControlsValidationRequest is the CB "contrôles de fond" checklist payload.
type ControlsValidationRequest struct {
	Items []ItemDecision `json:"items" binding:"required"`
}

// OrdonnateurVerificationsRequest is the ordonnateur checklist payload.
type OrdonnateurVerificationsRequest struct {
	Items []ItemDecision `json:"items" binding:"required"`
}
