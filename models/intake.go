package models

// PhysioIntake holds the answers of the pre-assessment questionnaire.
type PhysioIntake struct {
	Region             string   `json:"region" binding:"required,oneof=Neck Back Shoulder Elbow Hand/Wrist Hip Knee Ankle/Foot Other"`
	Duration           string   `json:"duration" binding:"required,oneof='< 1 week' '1–4 weeks' '1–3 months' '> 3 months'"`
	Onset              string   `json:"onset" binding:"required,oneof='Suddenly (injury)' Gradually 'After surgery' Unknown"`
	Symptoms           []string `json:"symptoms" binding:"dive,oneof=Sharp 'Dull ache' Tingling Burning Stiffness 'No pain'"`
	PainLevel          *int     `json:"pain_level" binding:"omitempty,min=0,max=10"`
	WorseningFactors   string   `json:"worsening_factors" binding:"max=1000"`
	RelievingFactors   string   `json:"relieving_factors" binding:"max=1000"`
	ActivitiesAffected []string `json:"activities_affected" binding:"dive,oneof=Sleep Walking Work Exercise Driving Dressing"`
	PriorInjury        string   `json:"prior_injury" binding:"required,oneof=Yes No"`
	Goals              string   `json:"goals" binding:"max=1000"`
	RedFlags           []string `json:"red_flags" binding:"dive,oneof='Night pain' 'Groin numbness' 'Weight loss' 'Bladder/Bowel issues' Fever 'None of the above'"`
	ExtraNotes         string   `json:"extra_notes" binding:"max=4000"`
}

// DefaultPainLevel is recorded when the pain level is not answered.
const DefaultPainLevel = 5
