package models

// Course is a fixed-price offering selectable on the admission form.
type Course struct {
	ID        string  `json:"id" mapstructure:"id"`
	NameEN    string  `json:"name_en" mapstructure:"name_en"`
	NameLocal string  `json:"name_local" mapstructure:"name_local"`
	FixedFee  float64 `json:"fixed_fee" mapstructure:"fixed_fee"`
}
