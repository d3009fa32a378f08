package seed

import (
	_ "embed"
	"fmt"

	"hirocks/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed topics.yaml
var topicsYAML []byte

// BuiltInTopic is one entry of the embedded topic catalog.
type BuiltInTopic struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
}

// BuiltInTopics parses the embedded topic catalog.
func BuiltInTopics() ([]BuiltInTopic, error) {
	var topics []BuiltInTopic
	if err := yaml.Unmarshal(topicsYAML, &topics); err != nil {
		return nil, fmt.Errorf("parse topics.yaml: %w", err)
	}
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		if t.Name == "" {
			return nil, fmt.Errorf("topics.yaml: topic without name")
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("topics.yaml: duplicate topic %q", t.Name)
		}
		seen[t.Name] = true
	}
	return topics, nil
}

// Topics upserts the built-in topics by name and returns them as stored.
func Topics(db *gorm.DB) ([]models.Topic, error) {
	builtIn, err := BuiltInTopics()
	if err != nil {
		return nil, err
	}

	for _, item := range builtIn {
		description, color, icon := item.Description, item.Color, item.Icon
		topic := models.Topic{
			Name:        item.Name,
			Description: &description,
			Color:       &color,
			Icon:        &icon,
			IsActive:    true,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "color", "icon", "is_active"}),
		}).Create(&topic).Error
		if err != nil {
			return nil, fmt.Errorf("seed topic %q: %w", item.Name, err)
		}
	}

	var stored []models.Topic
	if err := db.Order("name ASC").Find(&stored).Error; err != nil {
		return nil, err
	}
	return stored, nil
}
