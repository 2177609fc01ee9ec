package transport

import "lead_intel_backend/internal/leads/service"

func ToPreviewResponse(p service.Preview) PreviewResponse {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	resp := PreviewResponse{
		IntentScore:      p.Score,
		Stage:            p.Stage,
		VehicleInterests: interests,
		Factors:          p.Factors,
	}
	if p.Alert != nil {
		resp.Alert = &PreviewAlert{Trigger: p.Alert.Trigger, Priority: p.Alert.Priority, Message: p.Alert.Message}
	}
	return resp
}
