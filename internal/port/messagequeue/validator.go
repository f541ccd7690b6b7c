package messagequeue

import (
	"encoding/json"
	"fmt"
)

// schemaFor returns a fresh payload for subject, or nil for subjects
// without a registered schema.
func schemaFor(subject string) payload {
	switch subject {
	case SubjectTaskCreated, SubjectTaskStatus, SubjectTaskAssigned, SubjectTaskDeleted:
		return &TaskEventPayload{}
	case SubjectAgentStatus, SubjectAgentDeleted:
		return &AgentEventPayload{}
	case SubjectAgentHeartbeat:
		return &HeartbeatPayload{}
	case SubjectNotificationCreated:
		return &NotificationCreatedPayload{}
	case SubjectProcessRequest:
		return &ProcessRequestPayload{}
	case SubjectProcessResult:
		return &ProcessResultPayload{}
	case SubjectPoolWorkerChanged:
		return &PoolWorkerPayload{}
	case SubjectBoardInvalidated:
		return &BoardInvalidatedPayload{}
	}
	return nil
}

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject, including required fields. Unknown
// subjects only need to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	target := schemaFor(subject)
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if err := target.validate(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}

// Marshal encodes v and validates it against the subject's schema, so a
// malformed event never reaches the wire.
func Marshal(subject string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := Validate(subject, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode validates data and unmarshals it into dst.
func Decode(subject string, data []byte, dst any) error {
	if err := Validate(subject, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	return nil
}
