// Package panel decides which shell and content component the dashboard mounts for a
// role and page.
package panel

import (
	"github.com/frahmantamala/genops/internal/navigation"
	"github.com/frahmantamala/genops/internal/role"
)

type Component string

const (
	ComingSoon Component = "ComingSoon"

	AdminDashboard     Component = "AdminDashboard"
	GeneratorList      Component = "GeneratorList"
	GeneratorDetail    Component = "GeneratorDetail"
	BatteryList        Component = "BatteryList"
	ShopList           Component = "ShopList"
	InvoiceList        Component = "InvoiceList"
	OperatorList       Component = "OperatorList"
	NotificationList   Component = "NotificationList"
	OperatorDashboard  Component = "OperatorDashboard"
	OperatorTasks      Component = "OperatorTasks"
	OperatorProfile    Component = "OperatorProfile"
	TechDashboard      Component = "TechDashboard"
	TechTasks          Component = "TechTasks"
	TechServices       Component = "TechServices"
	TechReports        Component = "TechReports"
	InventoryDashboard Component = "InventoryDashboard"
	InventoryStock     Component = "InventoryStock"
)

// Content is the component mounted in the shell's content area.
type Content struct {
	Component   Component       `json:"component"`
	Page        navigation.Page `json:"page"`
	Placeholder bool            `json:"placeholder"`
}

// Shell is the role-specific sidebar and content wrapper.
type Shell struct {
	Role    role.Role         `json:"role"`
	Panel   navigation.Panel  `json:"panel"`
	Sidebar []navigation.Page `json:"sidebar"`
	Default navigation.Page   `json:"defaultPage"`
}

var components = map[navigation.Panel]map[navigation.Page]Component{
	navigation.PanelAdmin: {
		navigation.Dashboard:       AdminDashboard,
		navigation.Generators:      GeneratorList,
		navigation.GeneratorDetail: GeneratorDetail,
		navigation.Batteries:       BatteryList,
		navigation.Shops:           ShopList,
		navigation.Invoices:        InvoiceList,
		navigation.Operators:       OperatorList,
		navigation.Notifications:   NotificationList,
	},
	navigation.PanelOperator: {
		navigation.Dashboard:     OperatorDashboard,
		navigation.Generators:    GeneratorList,
		navigation.Batteries:     BatteryList,
		navigation.Tasks:         OperatorTasks,
		navigation.Invoices:      InvoiceList,
		navigation.Notifications: NotificationList,
		navigation.Profile:       OperatorProfile,
	},
	navigation.PanelTechnician: {
		navigation.Dashboard:     TechDashboard,
		navigation.Tasks:         TechTasks,
		navigation.Services:      TechServices,
		navigation.Generators:    GeneratorList,
		navigation.Batteries:     BatteryList,
		navigation.Reports:       TechReports,
		navigation.Notifications: NotificationList,
	},
	navigation.PanelInventory: {
		navigation.Dashboard:     InventoryDashboard,
		navigation.Generators:    GeneratorList,
		navigation.Batteries:     BatteryList,
		navigation.Stock:         InventoryStock,
		navigation.Notifications: NotificationList,
	},
}

// ShellFor returns the shell of a role. Unknown roles get the admin shell.
func ShellFor(r role.Role) Shell {
	if !r.Valid() {
		r = role.Admin
	}
	panel := navigation.PanelFor(r)
	return Shell{
		Role:    r,
		Panel:   panel,
		Sidebar: panel.Pages(),
		Default: panel.Default(),
	}
}

// Resolve picks the content component for page inside the role's shell. Pages without
// a component render the ComingSoon placeholder.
func Resolve(r role.Role, page navigation.Page) Content {
	panel := ShellFor(r).Panel
	if component, ok := components[panel][page]; ok {
		return Content{Component: component, Page: page}
	}
	return Content{Component: ComingSoon, Page: page, Placeholder: true}
}
