package patientflow

// Action identifies one of the defined workflow operations.
type Action string

const (
	ActionRecordVitals         Action = "record-vitals"
	ActionFinalizeConsultation Action = "finalize-consultation"
	ActionRecordPayment        Action = "record-payment"
	ActionDispense             Action = "dispense"
)

type transition struct {
	from Stage
	to   Stage
}

// transitions encodes the workflow explicitly: each action is legal in
// exactly one stage and advances the patient to exactly one next stage.
// Dispense is the exception in that the advance only happens once every
// prescription line is dispensed; until then the patient stays in
// Pharmacy (see Service.Dispense).
var transitions = map[Action]transition{
	ActionRecordVitals:         {from: StageTriage, to: StageConsultation},
	ActionFinalizeConsultation: {from: StageConsultation, to: StagePayment},
	ActionRecordPayment:        {from: StagePayment, to: StagePharmacy},
	ActionDispense:             {from: StagePharmacy, to: StageCompleted},
}

// NextStage resolves the stage a patient moves to when action is applied
// at current. Actions applied outside their required stage are rejected
// rather than blindly overwriting, so the journey stays monotonic.
func NextStage(action Action, current Stage) (Stage, error) {
	tr, ok := transitions[action]
	if !ok {
		return "", &WrongStageError{Action: action, Current: current}
	}
	if current != tr.from {
		return "", &WrongStageError{Action: action, Current: current, Required: tr.from}
	}
	return tr.to, nil
}

// RequiredStage returns the stage an action is legal in.
func RequiredStage(action Action) Stage {
	return transitions[action].from
}
