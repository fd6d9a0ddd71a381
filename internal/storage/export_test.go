package storage

import "time"

func (s *DynamoStore) SetPoll(d time.Duration) {
	s.poll = d
}
