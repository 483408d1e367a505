package dispatch

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// PolicyRule suppresses notifications matching a type and an optional
// condition expression evaluated against the flattened job payload.
type PolicyRule struct {
	Type      notification.Type
	Condition string
	Suppress  bool
}

// matches evaluates the rule against an envelope. An empty condition always
// matches; "true"/"false" literals are shortcuts.
func (r PolicyRule) matches(env *notification.Envelope) (bool, error) {
	if r.Type != "" && r.Type != env.Type {
		return false, nil
	}
	cond := strings.TrimSpace(r.Condition)
	if cond == "" {
		return true, nil
	}
	switch strings.ToLower(cond) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(policyParams(env))
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("policy condition did not evaluate to boolean")
	}
	return b, nil
}

// policyParams flattens the envelope into expression parameters, nesting
// payload data under dotted keys.
func policyParams(env *notification.Envelope) map[string]interface{} {
	params := map[string]interface{}{
		"type":       string(env.Type),
		"priority":   string(env.Delivery.Priority),
		"ttlSeconds": env.Delivery.TTLSeconds,
		"attempt":    env.Attempt,
		"targetId":   env.Target.AnonymousID,
		"roomId":     env.Target.RoomID,
	}
	if env.Payload == nil {
		return params
	}
	params["title"] = env.Payload.Title
	params["message"] = env.Payload.Message
	params["reportId"] = env.Payload.ReportID
	params["entityId"] = env.Payload.EntityID
	flatten("data", env.Payload.Data, params)
	return params
}

func flatten(prefix string, m map[string]any, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case map[string]any:
			flatten(key, vv, out)
		default:
			out[key] = vv
		}
	}
}
