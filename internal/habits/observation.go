package habits

// Observation is one daily value for a habit, tagged by the habit type it is
// valid for. Constructing the wrong variant for a habit fails type
// conformance in the recorder instead of silently persisting a null pair.
type Observation interface {
	apply(log *HabitLog)
	conformsTo(habitType HabitType) bool
}

// YesNoObservation marks a binary day as done or not done.
type YesNoObservation struct {
	Done bool
}

func (o YesNoObservation) apply(log *HabitLog) {
	done := o.Done
	log.BoolValue = &done
	log.NumericValue = nil
}

func (o YesNoObservation) conformsTo(habitType HabitType) bool {
	return habitType == HabitTypeYesNo
}

// MeasurableObservation records the amount achieved on a day.
type MeasurableObservation struct {
	Amount float64
}

func (o MeasurableObservation) apply(log *HabitLog) {
	amount := o.Amount
	log.NumericValue = &amount
	log.BoolValue = nil
}

func (o MeasurableObservation) conformsTo(habitType HabitType) bool {
	return habitType == HabitTypeMeasurable
}

// QuitObservation records a relapse day for an abstinence habit.
type QuitObservation struct {
	Relapsed bool
}

func (o QuitObservation) apply(log *HabitLog) {
	relapsed := o.Relapsed
	log.BoolValue = &relapsed
	log.NumericValue = nil
}

func (o QuitObservation) conformsTo(habitType HabitType) bool {
	return habitType == HabitTypeQuit
}

// ObservationForType builds the Observation variant matching the habit type
// from the raw optional values supplied at the boundary. It returns a
// ValidationError when the required value for the type is absent.
func ObservationForType(habitType HabitType, boolValue *bool, numericValue *float64) (Observation, error) {
	switch habitType {
	case HabitTypeYesNo:
		if boolValue == nil {
			return nil, newValidationError("bool_value", "a yes/no habit requires a boolean value")
		}
		return YesNoObservation{Done: *boolValue}, nil
	case HabitTypeMeasurable:
		if numericValue == nil {
			return nil, newValidationError("numeric_value", "a measurable habit requires a numeric value")
		}
		return MeasurableObservation{Amount: *numericValue}, nil
	case HabitTypeQuit:
		if boolValue == nil {
			return nil, newValidationError("bool_value", "a quit habit requires a boolean value")
		}
		return QuitObservation{Relapsed: *boolValue}, nil
	default:
		return nil, newValidationError("type", "unknown habit type")
	}
}
