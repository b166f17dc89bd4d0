package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

// catalogModel lists projects and their job cards.
type catalogModel struct {
	store    *store.Store
	identity worktimer.Identity
	width    int
	height   int

	projects     []store.Project
	items        []store.WorkItem
	cursor       int
	itemCursor   int
	viewingItems bool // true = viewing job cards of selected project

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project", "item", "edit_item"

	// Form field pointers (survive value copies)
	formCode   *string
	formName   *string
	formColor  *string
	formClient *string
	formTags   *string

	editingID int64
}

func newCatalogModel(s *store.Store, identity worktimer.Identity) catalogModel {
	code, name, color, client, tags := "", "", projectColors[0], "", ""
	return catalogModel{
		store:      s,
		identity:   identity,
		formCode:   &code,
		formName:   &name,
		formColor:  &color,
		formClient: &client,
		formTags:   &tags,
	}
}

func (c *catalogModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type projectsDataMsg struct {
	projects []store.Project
}

type itemsDataMsg struct {
	items []store.WorkItem
}

func (c catalogModel) refresh() tea.Cmd {
	return func() tea.Msg {
		projects, _ := c.store.ListProjects(false)
		return projectsDataMsg{projects: projects}
	}
}

func (c catalogModel) refreshItems() tea.Cmd {
	if c.cursor >= len(c.projects) {
		return nil
	}
	pid := c.projects[c.cursor].ID
	return func() tea.Msg {
		items, _ := c.store.ListWorkItems(pid, false)
		return itemsDataMsg{items: items}
	}
}

func (c catalogModel) update(msg tea.Msg) (catalogModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		c.projects = msg.projects
		if c.cursor >= len(c.projects) {
			c.cursor = max(0, len(c.projects)-1)
		}
		if len(c.projects) == 0 {
			c.viewingItems = false
		}
		return c, nil

	case itemsDataMsg:
		c.items = msg.items
		if c.itemCursor >= len(c.items) {
			c.itemCursor = max(0, len(c.items)-1)
		}
		return c, nil

	case tea.KeyMsg:
		if c.viewingItems {
			return c.updateItemView(msg)
		}
		return c.updateProjectList(msg)
	}
	return c, nil
}

func (c catalogModel) updateProjectList(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, keys.Down):
		if c.cursor < len(c.projects)-1 {
			c.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(c.projects) > 0 {
			c.viewingItems = true
			c.itemCursor = 0
			return c, c.refreshItems()
		}
	case key.Matches(msg, keys.New):
		return c.showProjectForm(nil)
	case key.Matches(msg, keys.Edit):
		if len(c.projects) > 0 {
			return c.showProjectForm(&c.projects[c.cursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(c.projects) > 0 {
			proj := c.projects[c.cursor]
			if err := c.store.ArchiveProject(proj.ID); err != nil {
				return c, statusCmd(fmt.Sprintf("Error: %v", err), true)
			}
			return c, c.refresh()
		}
	}
	return c, nil
}

func (c catalogModel) updateItemView(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		c.viewingItems = false
		return c, nil
	case key.Matches(msg, keys.Up):
		if c.itemCursor > 0 {
			c.itemCursor--
		}
	case key.Matches(msg, keys.Down):
		if c.itemCursor < len(c.items)-1 {
			c.itemCursor++
		}
	case key.Matches(msg, keys.Start):
		if len(c.items) > 0 && c.cursor < len(c.projects) {
			item := c.items[c.itemCursor]
			proj := c.projects[c.cursor]
			return c, func() tea.Msg {
				return startRequestMsg{
					workItemID:      item.Code,
					label:           item.Title,
					parentContextID: proj.Code,
				}
			}
		}
	case key.Matches(msg, keys.New):
		return c.showItemForm(nil)
	case key.Matches(msg, keys.Edit):
		if len(c.items) > 0 {
			return c.showItemForm(&c.items[c.itemCursor])
		}
	case key.Matches(msg, keys.Delete):
		if len(c.items) > 0 {
			item := c.items[c.itemCursor]
			if err := c.store.ArchiveWorkItem(item.ID); err != nil {
				return c, statusCmd(fmt.Sprintf("Error: %v", err), true)
			}
			return c, c.refreshItems()
		}
	}
	return c, nil
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

// showProjectForm opens the create form, or the edit form when proj is
// set. The code of an existing project is fixed: time logs refer to it.
func (c catalogModel) showProjectForm(proj *store.Project) (catalogModel, tea.Cmd) {
	*c.formCode = ""
	*c.formName = ""
	*c.formColor = projectColors[0]
	*c.formClient = ""
	c.formType = "project"
	if proj != nil {
		*c.formName = proj.Name
		*c.formColor = proj.Color
		*c.formClient = proj.Client
		c.formType = "edit_project"
		c.editingID = proj.ID
	}

	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, col := range projectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", col), col)
	}

	var fields []huh.Field
	if proj == nil {
		fields = append(fields, huh.NewInput().
			Title("Project Code").
			Description("Identifier used by the backend, e.g. proj1").
			Validate(requiredField("code")).
			Value(c.formCode))
	}
	fields = append(fields,
		huh.NewInput().Title("Project Name").Validate(requiredField("name")).Value(c.formName),
		huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(c.formColor),
		huh.NewInput().Title("Client").Value(c.formClient),
	)

	c.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	c.formActive = true
	return c, c.form.Init()
}

func (c catalogModel) showItemForm(item *store.WorkItem) (catalogModel, tea.Cmd) {
	*c.formCode = ""
	*c.formName = ""
	*c.formTags = ""
	c.formType = "item"
	if item != nil {
		*c.formName = item.Title
		*c.formTags = item.Tags
		c.formType = "edit_item"
		c.editingID = item.ID
	}

	var fields []huh.Field
	if item == nil {
		fields = append(fields, huh.NewInput().
			Title("Job Card Code").
			Description("Identifier used by the backend, e.g. jc1").
			Validate(requiredField("code")).
			Value(c.formCode))
	}
	fields = append(fields,
		huh.NewInput().Title("Title").Validate(requiredField("title")).Value(c.formName),
		huh.NewInput().Title("Tags (comma-separated)").Value(c.formTags),
	)

	c.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	c.formActive = true
	return c, c.form.Init()
}

func (c catalogModel) updateForm(msg tea.Msg) (catalogModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State != huh.StateCompleted {
		return c, cmd
	}

	c.formActive = false
	c.form = nil
	code := strings.TrimSpace(*c.formCode)
	name := strings.TrimSpace(*c.formName)

	var err error
	switch c.formType {
	case "project":
		_, err = c.store.CreateProject(code, name, *c.formColor, strings.TrimSpace(*c.formClient))
	case "edit_project":
		err = c.store.UpdateProject(c.editingID, name, *c.formColor, strings.TrimSpace(*c.formClient))
	case "item":
		if c.cursor < len(c.projects) {
			_, err = c.store.CreateWorkItem(c.projects[c.cursor].ID, code, name, strings.TrimSpace(*c.formTags))
		}
	case "edit_item":
		err = c.store.UpdateWorkItem(c.editingID, name, strings.TrimSpace(*c.formTags))
	}

	refresh := c.refresh()
	if c.viewingItems {
		refresh = c.refreshItems()
	}
	if err != nil {
		return c, tea.Batch(refresh, statusCmd(fmt.Sprintf("Error: %v", err), true))
	}
	return c, refresh
}

func (c catalogModel) view() string {
	if c.formActive && c.form != nil {
		var title string
		switch c.formType {
		case "edit_project":
			title = "Edit Project"
		case "item":
			title = "New Job Card"
		case "edit_item":
			title = "Edit Job Card"
		default:
			title = "New Project"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", c.form.View())
		return panelStyle.Width(c.width - 4).Render(content)
	}

	if c.viewingItems && c.cursor < len(c.projects) {
		return c.renderItemView()
	}
	return c.renderProjectList()
}

func (c catalogModel) renderProjectList() string {
	w := c.width - 4
	title := titleStyle.Render("Projects")

	if len(c.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-12s %-24s %-16s", "", "Code", "Name", "Client"))
	rows = append(rows, header)

	for i, proj := range c.projects {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%s %-12s %-24s %-16s",
			cursor, projectDot(proj.Color), truncate(proj.Code, 12), truncate(proj.Name, 24), truncate(proj.Client, 16)))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  r: edit  d: archive  enter: job cards"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c catalogModel) renderItemView() string {
	w := c.width - 4
	proj := c.projects[c.cursor]
	title := titleStyle.Render(fmt.Sprintf("%s %s · Job Cards", projectDot(proj.Color), proj.Name))

	if len(c.items) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No job cards. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, item := range c.items {
		cursor := "  "
		style := normalItemStyle
		if i == c.itemCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tags := ""
		if item.Tags != "" {
			tags = mutedStyle.Render(" [" + item.Tags + "]")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-8s %s", cursor, truncate(item.Code, 8), item.Title))+tags)
	}

	rows = append(rows, "")
	hint := "  n: new  r: edit  d: archive  esc: back"
	if c.identity.Role.CanTrackTime() {
		hint = "  s: start timer" + hint
	}
	rows = append(rows, mutedStyle.Render(hint))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
