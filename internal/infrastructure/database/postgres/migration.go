// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promo"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// User domain - Base tables
		&user.User{},

		// Catalog domain - Base tables
		&catalog.Brand{},
		&catalog.Product{},
		&catalog.ProductVariant{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Promo domain
		&promo.PromoCode{},
		&promo.PromoRedemption{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_products_brand_active ON products(brand_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_premium ON products(is_premium, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_carts_user ON carts(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items(cart_id, product_id)",

		// Promo indexes
		"CREATE INDEX IF NOT EXISTS idx_promo_codes_active ON promo_codes(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_promo_redemptions_order ON promo_redemptions(order_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status_created ON orders(user_id, status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if err := m.seedPromoCodes(); err != nil {
		return fmt.Errorf("failed to seed promo codes: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		adminUser := user.User{
			Email:        "admin@example.com",
			PasswordHash: string(hashedPassword),
			FullName:     "Admin User",
			IsAdmin:      true,
		}

		if err := m.db.Create(&adminUser).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("✅ Created admin user: admin@example.com (password: admin123)")
	} else {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
	}

	return nil
}

// seedCatalog creates demo brands, products and size variants
func (m *Migration) seedCatalog() error {
	log.Println("🏷️ Seeding catalog...")

	brands := []catalog.Brand{
		{Name: "Northwind"},
		{Name: "Atelier Noir"},
		{Name: "Basics Co"},
	}
	for i := range brands {
		var existing catalog.Brand
		result := m.db.Where("name = ?", brands[i].Name).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&brands[i]).Error; err != nil {
				return err
			}
			log.Printf("✅ Created brand: %s", brands[i].Name)
		} else {
			brands[i] = existing
		}
	}

	products := []catalog.Product{
		{
			Name:      "Merino Crew Sweater",
			BrandID:   &brands[0].ID,
			Price:     12900,
			ImageURL:  "/images/merino-crew.jpg",
			IsPremium: false,
			IsActive:  true,
			Variants: []catalog.ProductVariant{
				{SizeLabel: "S", IsActive: true},
				{SizeLabel: "M", IsActive: true},
				{SizeLabel: "L", Price: 13900, IsActive: true},
			},
		},
		{
			Name:      "Silk Evening Dress",
			BrandID:   &brands[1].ID,
			Price:     48900,
			ImageURL:  "/images/silk-dress.jpg",
			IsPremium: true,
			IsActive:  true,
			Variants: []catalog.ProductVariant{
				{SizeLabel: "XS", IsActive: true},
				{SizeLabel: "S", IsActive: true},
				{SizeLabel: "M", IsActive: true},
			},
		},
		{
			Name:      "Cotton Tee 3-Pack",
			BrandID:   &brands[2].ID,
			Price:     3900,
			ImageURL:  "/images/cotton-tee.jpg",
			IsPremium: false,
			IsActive:  true,
		},
	}
	for _, p := range products {
		var existing catalog.Product
		result := m.db.Where("name = ?", p.Name).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&p).Error; err != nil {
				return err
			}
			log.Printf("✅ Created product: %s", p.Name)
		} else {
			log.Printf("⏭️ Product already exists: %s", p.Name)
		}
	}

	return nil
}

// seedPromoCodes creates demo promo codes for development
func (m *Migration) seedPromoCodes() error {
	log.Println("🎟️ Seeding promo codes...")

	minSubtotal := int64(10000)
	maxRedemptions := 100
	endsAt := time.Now().AddDate(1, 0, 0)

	codes := []promo.PromoCode{
		{
			Code:         "WELCOME10",
			DiscountType: promo.DiscountPercent,
			Value:        10,
			AppliesTo:    promo.AppliesToAll,
			IsActive:     true,
		},
		{
			Code:           "SAVE500",
			DiscountType:   promo.DiscountAmount,
			Value:          500,
			AppliesTo:      promo.AppliesToAll,
			MinSubtotal:    &minSubtotal,
			MaxRedemptions: &maxRedemptions,
			EndsAt:         &endsAt,
			IsActive:       true,
		},
		{
			Code:           "PREMIUM15",
			DiscountType:   promo.DiscountPercent,
			Value:          15,
			AppliesTo:      promo.AppliesToPremiumOnly,
			ExcludedBrands: "Basics Co",
			IsActive:       true,
		},
	}

	for _, code := range codes {
		var existing promo.PromoCode
		result := m.db.Where("code = ?", code.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&code).Error; err != nil {
				return err
			}
			log.Printf("✅ Created promo code: %s", code.Code)
		} else {
			log.Printf("⏭️ Promo code already exists: %s", code.Code)
		}
	}

	return nil
}
