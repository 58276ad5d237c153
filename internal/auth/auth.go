package auth

// Service admits exactly one correspondent, the configured owner.
type Service struct {
	ownerID int64
}

func New(ownerID int64) *Service {
	return &Service{ownerID: ownerID}
}

func (s *Service) IsAllowed(userID int64) bool {
	return s != nil && s.ownerID != 0 && userID == s.ownerID
}

// OwnerID is also the owner's private chat id in Telegram.
func (s *Service) OwnerID() int64 {
	return s.ownerID
}
