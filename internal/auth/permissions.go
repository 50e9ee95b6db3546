package auth

const (
	PermManageUsers    = "users.manage"
	PermManageAccess   = "access.manage"
	PermCatalogWrite   = "catalog.write"
	PermCatalogPublish = "catalog.publish"
)

var BuiltinPermissions = []Permission{
	{Name: PermManageUsers, Description: "Manage user accounts"},
	{Name: PermManageAccess, Description: "Manage roles, permissions and grants"},
	{Name: PermCatalogWrite, Description: "Create and edit catalog entries"},
	{Name: PermCatalogPublish, Description: "Publish and unpublish catalog entries"},
}
