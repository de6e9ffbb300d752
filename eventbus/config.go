package eventbus

import (
	"fmt"
	"os"
)

// GetBrokers 는 환경 변수 KAFKA_BOOTSTRAP_SERVERS 에서 Kafka 브로커 주소를 읽는다.
func GetBrokers() (string, error) {
	v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if v == "" {
		return "", fmt.Errorf("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
	}
	return v, nil
}

// GetGroupID 는 환경 변수 KAFKA_GROUP_ID 에서 컨슈머 그룹 ID 를 읽는다.
func GetGroupID() (string, error) {
	v := os.Getenv("KAFKA_GROUP_ID")
	if v == "" {
		return "", fmt.Errorf("KAFKA_GROUP_ID environment variable is required")
	}
	return v, nil
}
