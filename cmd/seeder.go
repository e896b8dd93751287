package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/invoice"
	invoiceDocuments "github.com/frahmantamala/genops/internal/invoice/documents"
	"github.com/frahmantamala/genops/internal/role"
	"github.com/frahmantamala/genops/internal/shop"
	shopDocuments "github.com/frahmantamala/genops/internal/shop/documents"
	"github.com/frahmantamala/genops/internal/user"
	userDocuments "github.com/frahmantamala/genops/internal/user/documents"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with sample data",
	Long:  `Seed the document store with sample users, shops and invoices for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		store, db, err := openStore(cfg, lg)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer store.Close()
		if db != nil {
			defer db.Close()
		}

		if err := seed(internal.ContextAsSystem(context.Background()), store, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seeding complete")
	},
}

var seedUsers = []*user.User{
	{UID: "admin-1", Role: role.StoredAdmin, Name: "Padil Admin", Email: "admin@genops.dev"},
	{UID: "operator-1", Role: role.StoredOperator, Name: "Fadhil", Email: "fadhil@genops.dev", ContactNumber: "+62 811 0000 001"},
	{UID: "operator-2", Role: role.StoredOperator, Name: "Sari", Email: "sari@genops.dev", ContactNumber: "+62 811 0000 002"},
	{UID: "tech-1", Role: role.StoredTechnician, Name: "Budi", Email: "budi@genops.dev"},
	{UID: "inventory-1", Role: role.StoredInventory, Name: "Rina", Email: "rina@genops.dev"},
}

// seed writes the sample data. ctx must carry system privileges.
func seed(ctx context.Context, store docstore.Store, clear bool) error {
	if clear {
		for _, root := range []string{"users", "shops", "invoices", "notifications"} {
			if err := store.Remove(ctx, root); err != nil {
				return fmt.Errorf("clear %s: %w", root, err)
			}
		}
		fmt.Println("Cleared existing data")
	}

	users := userDocuments.NewUserRepository(store)
	userService := user.NewService(users, logger.LoggerWrapper())
	for _, u := range seedUsers {
		if err := userService.Upsert(ctx, u); err != nil {
			return err
		}
		fmt.Println("Seeded user:", u.Email)
	}

	shopService := shop.NewService(shopDocuments.NewShopRepository(store), userService, logger.LoggerWrapper())
	existing, err := shopService.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, dto := range []shop.CreateShopDTO{
			{Name: "Kemang Power Hub", Code: "JKT-01", City: "Jakarta", District: "Kemang", OperatorID: "operator-1"},
			{Name: "Dago Charging Point", Code: "BDG-01", City: "Bandung", District: "Dago", OperatorID: "operator-2"},
			{Name: "Sanur Battery Depot", Code: "DPS-01", City: "Denpasar", District: "Sanur", Status: string(shop.StatusInactive)},
		} {
			s, err := shopService.Create(ctx, dto)
			if err != nil {
				return err
			}
			fmt.Println("Seeded shop:", s.Code)
		}
	}

	invoices := invoiceDocuments.NewInvoiceRepository(store)
	for _, inv := range sampleInvoices(time.Now().UTC()) {
		exists, err := invoices.Exists(ctx, inv.ID)
		if err != nil {
			return err
		}
		if exists {
			fmt.Println("invoice already exists:", inv.ID)
			continue
		}
		if err := invoices.Create(ctx, inv); err != nil {
			return err
		}
		fmt.Println("Seeded invoice:", inv.ID)
	}
	return nil
}

func sampleInvoices(now time.Time) []*invoice.Invoice {
	day := 24 * time.Hour
	qty := func(v float64) *float64 { return &v }

	build := func(id, company string, issued time.Time, due time.Duration, status invoice.Status, items ...invoice.LineItem) *invoice.Invoice {
		dueDate := issued.Add(due)
		inv := &invoice.Invoice{
			ID:          id,
			CompanyName: company,
			Date:        issued,
			DueDate:     &dueDate,
			Status:      status,
			LineItems:   items,
			CreatedBy:   "admin-1",
			UpdatedAt:   now,
		}
		inv.Amount = invoice.ComputeTotals(items).Total
		return inv
	}

	return []*invoice.Invoice{
		build("INV-0001", "PT Listrik Nusantara", now.Add(-40*day), 30*day, invoice.StatusPending,
			invoice.LineItem{ID: "r1", Description: "Generator rental (monthly)", Qty: qty(2), UnitPrice: qty(1500000)},
			invoice.LineItem{ID: "r2", Description: "Fuel surcharge", Amount: qty(250000)},
		),
		build("INV-0002", "CV Baterai Jaya", now.Add(-10*day), 14*day, invoice.StatusPaid,
			invoice.LineItem{ID: "r1", Description: "Battery swap service", Qty: qty(12), UnitPrice: qty(45000)},
		),
		build("INV-0003", "Koperasi Nelayan Sanur", now.Add(-2*day), 30*day, invoice.StatusPending,
			invoice.LineItem{ID: "r1", Description: "Maintenance visit", Qty: qty(1), UnitPrice: qty(350000)},
		),
	}
}
