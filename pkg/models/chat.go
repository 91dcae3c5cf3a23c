package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation with the research agent.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the agent's answer to a conversation.
type ChatReply struct {
	Text              string `json:"text"`
	Steps             int    `json:"steps"`
	ChallengeDetected bool   `json:"challengeDetected"`
}
