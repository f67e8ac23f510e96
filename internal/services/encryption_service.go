package services

import (
	"nutritrack/internal/crypto"
	"nutritrack/internal/models"
)

// EncryptionService seals the free-text fields of progress rows. A nil
// *EncryptionService stores text as-is.
type EncryptionService struct {
	crypto *crypto.Cipher
}

func NewEncryptionService(key []byte) (*EncryptionService, error) {
	c, err := crypto.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{crypto: c}, nil
}

// EncryptNotes returns the value to hand to the store.
func (s *EncryptionService) EncryptNotes(notes string) (string, error) {
	if s == nil {
		return notes, nil
	}
	return s.crypto.Encrypt(notes)
}

// DecryptProgress decrypts notes in place after a row comes back from the store.
func (s *EncryptionService) DecryptProgress(p *models.DailyProgress) error {
	if s == nil || p == nil || p.Notes == nil {
		return nil
	}
	plain, err := s.crypto.Decrypt(*p.Notes)
	if err != nil {
		return err
	}
	p.Notes = &plain
	return nil
}
