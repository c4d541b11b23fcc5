package model

type DashboardStats struct {
	TotalProducts  int       `json:"total_products" yaml:"total_products"`
	TotalUsers     int       `json:"total_users" yaml:"total_users"`
	TotalLowStock  int       `json:"total_low_products_in_stock" yaml:"total_low_products_in_stock"`
	LatestProducts []Product `json:"latest_products" yaml:"latest_products"`
}
