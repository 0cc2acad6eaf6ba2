package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"reserva/internal/models"
	"reserva/internal/slots"
)

// RoomSeed is one room entry of seed.yaml.
type RoomSeed struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	OpenTime     string `yaml:"open_time"`     // "08:00"
	CloseTime    string `yaml:"close_time"`    // "18:00"
	BlockMinutes int    `yaml:"block_minutes"` // 30
	Active       *bool  `yaml:"active,omitempty"`
}

// ClientSeed is one directory user of seed.yaml.
type ClientSeed struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Role   string `yaml:"role"`
	Active *bool  `yaml:"active,omitempty"`
}

// Seed is the root of seed.yaml.
type Seed struct {
	Rooms   []RoomSeed   `yaml:"rooms"`
	Clients []ClientSeed `yaml:"clients"`
}

// LoadSeed loads and validates the seed file.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		path = "configs/seed.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("validate seed: %w", err)
	}

	return &seed, nil
}

// Validate checks the seed for errors.
func (s *Seed) Validate() error {
	roomIDs := make(map[string]bool)
	for i, r := range s.Rooms {
		if _, err := uuid.Parse(r.ID); err != nil {
			return fmt.Errorf("room[%d]: invalid id %q", i, r.ID)
		}
		if roomIDs[r.ID] {
			return fmt.Errorf("room[%d]: duplicate id %s", i, r.ID)
		}
		roomIDs[r.ID] = true

		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if _, err := slots.ValidateConfig(r.OpenTime, r.CloseTime, r.BlockMinutes); err != nil {
			return fmt.Errorf("room[%d]: %w", i, err)
		}
	}

	clientIDs := make(map[string]bool)
	for i, c := range s.Clients {
		if _, err := uuid.Parse(c.ID); err != nil {
			return fmt.Errorf("client[%d]: invalid id %q", i, c.ID)
		}
		if clientIDs[c.ID] {
			return fmt.Errorf("client[%d]: duplicate id %s", i, c.ID)
		}
		clientIDs[c.ID] = true

		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("client[%d]: name is required", i)
		}
		switch models.Role(c.Role) {
		case models.RoleAdmin, models.RoleClient:
		default:
			return fmt.Errorf("client[%d]: invalid role %q", i, c.Role)
		}
	}

	return nil
}

// RoomModels converts seeded rooms. Active defaults to true.
func (s *Seed) RoomModels() []models.Room {
	rooms := make([]models.Room, len(s.Rooms))
	for i, r := range s.Rooms {
		rooms[i] = models.Room{
			ID:           r.ID,
			Name:         strings.TrimSpace(r.Name),
			OpenTime:     r.OpenTime,
			CloseTime:    r.CloseTime,
			BlockMinutes: r.BlockMinutes,
			Active:       r.Active == nil || *r.Active,
		}
	}
	return rooms
}

// ClientModels converts seeded directory users. Active defaults to true.
func (s *Seed) ClientModels() []models.Client {
	clients := make([]models.Client, len(s.Clients))
	for i, c := range s.Clients {
		clients[i] = models.Client{
			ID:     c.ID,
			Name:   strings.TrimSpace(c.Name),
			Email:  c.Email,
			Role:   models.Role(c.Role),
			Active: c.Active == nil || *c.Active,
		}
	}
	return clients
}
