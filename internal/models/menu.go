package models

// Menu is the active menu header of a tenant
type Menu struct {
	ID    int64
	Title string
}

// MenuOption is one selectable line of a menu node. An empty NextKey marks a
// terminal option.
type MenuOption struct {
	ID      int64
	Key     string
	Label   string
	NextKey string
	Order   int
}
