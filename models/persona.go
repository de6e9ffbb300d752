package models

import "time"

// Persona 는 사용자의 말투/성향 요약이다. 아직 생성되지 않았을 수 있다.
// Collection: personas
type Persona struct {
	Identity      string         `bson:"identity" json:"identity"`
	Summary       string         `bson:"summary" json:"summary"`
	Traits        []PersonaTrait `bson:"traits" json:"traits"`
	CommonTopics  []string       `bson:"common_topics" json:"common_topics"`
	SpeakingStyle *SpeakingStyle `bson:"speaking_style,omitempty" json:"speaking_style,omitempty"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updated_at"`
}

type PersonaTrait struct {
	Category   string  `bson:"category" json:"category"`
	Trait      string  `bson:"trait" json:"trait"`
	Confidence float64 `bson:"confidence" json:"confidence"`
}

// SpeakingStyle 의 각 점수는 0~1 범위다.
type SpeakingStyle struct {
	Formality    float64 `bson:"formality" json:"formality"`
	Friendliness float64 `bson:"friendliness" json:"friendliness"`
	Humor        float64 `bson:"humor" json:"humor"`
	Enthusiasm   float64 `bson:"enthusiasm" json:"enthusiasm"`
}

// Activity 는 최근 활동(음성 메모 전사, 메모 등) 한 건이다.
// Collection: activities
type Activity struct {
	Identity  string    `bson:"identity" json:"identity"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
