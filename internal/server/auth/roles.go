package auth

import "github.com/dmitrijs2005/todoapi/internal/server/models"

// Right is a capability label declared per route.
type Right string

const (
	RightGetTodos       Right = "getTodos"
	RightManageTodos    Right = "manageTodos"
	RightGetPosts       Right = "getPosts"
	RightManagePosts    Right = "managePosts"
	RightManageComments Right = "manageComments"
	RightGetUsers       Right = "getUsers"
	RightManageUsers    Right = "manageUsers"
)

var userRights = []Right{RightGetTodos, RightManageTodos, RightGetPosts, RightManagePosts, RightManageComments}

var roleRights = map[models.Role]map[Right]struct{}{
	models.RoleUser:  set(userRights...),
	models.RoleAdmin: set(append(userRights, RightGetUsers, RightManageUsers)...),
}

func set(rights ...Right) map[Right]struct{} {
	m := make(map[Right]struct{}, len(rights))
	for _, r := range rights {
		m[r] = struct{}{}
	}
	return m
}

// HasRights reports whether role holds every one of rights.
// Unknown roles hold nothing.
func HasRights(role models.Role, rights ...Right) bool {
	granted := roleRights[role]
	for _, r := range rights {
		if _, ok := granted[r]; !ok {
			return false
		}
	}
	return true
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role models.Role) bool {
	_, ok := roleRights[role]
	return ok
}
