package dto

// Envelope 는 모든 /api/v1 응답의 공통 형식이다.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(err string) Envelope {
	return Envelope{Success: false, Error: err}
}

// GenerateRequestDTO 는 수동 생성 요청 바디다. 바디가 없으면 기본 identity 를 쓴다.
type GenerateRequestDTO struct {
	Identity string `json:"identity"`
}
