package epwcharts

// Strategy is a passive comfort strategy drawn on the psychrometric chart as
// an additional polygon.
type Strategy string

const (
	StrategyEvaporativeCooling  Strategy = "Evaporative Cooling"
	StrategyNightVentilation    Strategy = "Mass + Night Vent"
	StrategyFanUse              Strategy = "Occupant Use of Fans"
	StrategyInternalHeat        Strategy = "Capture Internal Heat"
	StrategyPassiveSolarHeating Strategy = "Passive Solar Heating"
)

// StrategyParameters control how far each strategy polygon extends beyond the
// comfort zone.
type StrategyParameters struct {
	// DayAboveComfort is how many degrees above the comfort maximum night
	// ventilation can recover.
	DayAboveComfort float64

	// NightBelowComfort is how far below the comfort minimum the night must
	// drop for night ventilation to work.
	NightBelowComfort float64

	// FanAirSpeed is the air speed in m/s occupants can produce with fans.
	FanAirSpeed float64

	// BalanceTemperature is the outdoor temperature at which internal gains
	// keep the building comfortable.
	BalanceTemperature float64

	// SolarHeatingCapacity is the irradiance in W/m2 assumed to be usable for
	// passive solar heating.
	SolarHeatingCapacity float64

	// TimeConstant is the thermal mass time constant in hours.
	TimeConstant float64
}

// DefaultStrategyParameters returns the conventional defaults.
func DefaultStrategyParameters() StrategyParameters {
	return StrategyParameters{
		DayAboveComfort:      12,
		NightBelowComfort:    3,
		FanAirSpeed:          1,
		BalanceTemperature:   12.8,
		SolarHeatingCapacity: 50,
		TimeConstant:         8,
	}
}
