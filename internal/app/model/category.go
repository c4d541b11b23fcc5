package model

type Category struct {
	ID   uint   `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}
