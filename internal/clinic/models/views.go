package models

// PatientView joins a patient role record with its identity record for API
// responses.
type PatientView struct {
	Patient Patient `json:"patient"`
	Person  Person  `json:"person"`
}

// ProviderView joins a provider role record with its identity record for API
// responses.
type ProviderView struct {
	Provider Provider `json:"provider"`
	Person   Person   `json:"person"`
}
