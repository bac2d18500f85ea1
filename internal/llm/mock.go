package llm

import "encoding/json"

// mockResponse produces deterministic stage-keyed output so graphs can be
// exercised end to end without network access or secrets.
func mockResponse(req Request) string {
	switch req.Stage {
	case "determine_orientation":
		payload, _ := json.Marshal(map[string]interface{}{
			"ats_weight":       0.35,
			"recruiter_weight": 0.30,
			"technical_weight": 0.35,
			"rationale":        "Balanced default profile for readability, ATS parsing, and technical depth.",
		})
		return string(payload)
	case "ats_pass":
		return "ATS-optimized CV draft\n\n" + truncate(req.Prompt, 2000)
	case "recruiter_pass":
		return "Recruiter-focused CV draft\n\n" + truncate(req.Prompt, 2000)
	case "technical_pass":
		return "Technical-expert CV draft\n\n" + truncate(req.Prompt, 2000)
	case "final_render":
		return "Final CV\n\n" + truncate(req.Prompt, 3000)
	default:
		return truncate(req.Prompt, 2000)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
