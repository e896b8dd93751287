package panel

import (
	"net/url"
	"time"

	"github.com/frahmantamala/genops/internal/navigation"
	"github.com/frahmantamala/genops/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Shell", func() {
	DescribeTable("ShellFor",
		func(r role.Role, want navigation.Panel) {
			shell := ShellFor(r)
			Expect(shell.Panel).To(Equal(want))
			Expect(shell.Default).To(Equal(navigation.Dashboard))
			Expect(shell.Sidebar).NotTo(BeEmpty())
		},
		Entry("admin", role.Admin, navigation.PanelAdmin),
		Entry("operate", role.Operate, navigation.PanelOperator),
		Entry("tech", role.Tech, navigation.PanelTechnician),
		Entry("invent", role.Invent, navigation.PanelInventory),
		Entry("empty role", role.Role(""), navigation.PanelAdmin),
		Entry("unknown role", role.Role("janitor"), navigation.PanelAdmin),
	)

	It("reports admin for an unknown role", func() {
		Expect(ShellFor("janitor").Role).To(Equal(role.Admin))
	})
})

var _ = Describe("Resolve", func() {
	DescribeTable("picks the component for a role and page",
		func(r role.Role, page navigation.Page, want Component, placeholder bool) {
			content := Resolve(r, page)
			Expect(content.Component).To(Equal(want))
			Expect(content.Placeholder).To(Equal(placeholder))
			Expect(content.Page).To(Equal(page))
		},
		Entry("admin dashboard", role.Admin, navigation.Dashboard, AdminDashboard, false),
		Entry("admin invoices", role.Admin, navigation.Invoices, InvoiceList, false),
		Entry("admin generator detail", role.Admin, navigation.GeneratorDetail, GeneratorDetail, false),
		Entry("admin settings not built", role.Admin, navigation.Settings, ComingSoon, true),
		Entry("technician reports", role.Tech, navigation.Reports, TechReports, false),
		Entry("operator profile", role.Operate, navigation.Profile, OperatorProfile, false),
		Entry("inventory reports not built", role.Invent, navigation.Reports, ComingSoon, true),
		Entry("unknown page", role.Operate, navigation.Page("Payroll"), ComingSoon, true),
		Entry("unknown role uses admin components", role.Role("bogus"), navigation.Shops, ShopList, false),
	)

	It("only maps components to pages of their own panel", func() {
		for panel, pages := range components {
			for page := range pages {
				Expect(panel.Has(page)).To(BeTrue(), "%s has a component for foreign page %s", panel, page)
			}
		}
	})
})

var _ = Describe("Registry", func() {
	It("reads the query on mount and syncs technician urls on navigate", func() {
		reg := NewRegistry("/dashboard")

		view := reg.Mount("c1", role.Tech, url.Values{"page": {"tasks"}})
		Expect(view.Page).To(Equal(navigation.Tasks))
		Expect(view.Content.Component).To(Equal(TechTasks))

		view = reg.Navigate("c1", role.Tech, navigation.Reports)
		Expect(view.URL).To(Equal("/dashboard?page=reports"))

		view = reg.Navigate("c1", role.Tech, navigation.Dashboard)
		Expect(view.URL).To(Equal("/dashboard"))
		Expect(view.Content.Component).To(Equal(TechDashboard))
	})

	It("keeps client state apart", func() {
		reg := NewRegistry("/")
		reg.Navigate("a", role.Admin, navigation.Shops)
		Expect(reg.Current("b", role.Admin).Page).To(Equal(navigation.Dashboard))
		Expect(reg.Current("a", role.Admin).Page).To(Equal(navigation.Shops))
	})

	It("exposes the back target after a generator selection", func() {
		reg := NewRegistry("/")
		view, ok := reg.SelectGenerator("a", role.Admin, "gen-1")
		Expect(ok).To(BeTrue())
		Expect(view.Content.Component).To(Equal(GeneratorDetail))
		Expect(view.SelectedGeneratorID).To(Equal("gen-1"))
		Expect(view.Back).To(Equal(&navigation.Target{Panel: navigation.PanelAdmin, Page: navigation.Generators}))

		_, ok = reg.SelectGenerator("a", role.Operate, "gen-1")
		Expect(ok).To(BeFalse())
	})

	It("evicts idle clients", func() {
		reg := NewRegistry("/")
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		reg.now = func() time.Time { return now }

		reg.Mount("old", role.Admin, nil)
		now = now.Add(time.Hour)
		reg.Mount("fresh", role.Admin, nil)

		Expect(reg.EvictIdle(30 * time.Minute)).To(Equal(1))
		Expect(reg.Len()).To(Equal(1))

		reg.Forget("fresh")
		Expect(reg.Len()).To(Equal(0))
	})
})
