package models

// TrendItem 은 요청마다 새로 수집되는 트렌드 키워드다. 게시 기록의 스냅샷으로만 저장된다.
type TrendItem struct {
	Keyword  string `bson:"keyword" json:"keyword"`
	Rank     int    `bson:"rank" json:"rank"`
	Category string `bson:"category,omitempty" json:"category,omitempty"`
	Source   string `bson:"source,omitempty" json:"source,omitempty"`
}
