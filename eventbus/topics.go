package eventbus

// DefaultTopicName 은 생성 요청/결과 이벤트가 오가는 기본 토픽이다. config 의 eventbus.topic 으로 바꿀 수 있다.
const DefaultTopicName = "autopost.generation.events"

// TopicFor 는 name 의 토픽을 반환한다. 비어 있으면 DefaultTopicName 을 쓴다.
func TopicFor(name string) Topic {
	if name == "" {
		name = DefaultTopicName
	}
	return NewTopic(name)
}
