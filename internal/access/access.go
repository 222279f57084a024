// Package access описывает, какие роли могут выполнять операции API.
package access

import "github.com/mmeshcher/beverages-system/internal/model"

// Operation обозначает защищённую операцию API.
type Operation string

const (
	OpViewProfile        Operation = "profile:view"
	OpViewCatalog        Operation = "catalog:view"
	OpManageCatalog      Operation = "catalog:manage"
	OpCreateOrder        Operation = "orders:create"
	OpListOrders         Operation = "orders:list"
	OpListOwnOrders      Operation = "orders:list-own"
	OpViewOrder          Operation = "orders:view"
	OpUpdateOrderStatus  Operation = "orders:update-status"
	OpCancelOrder        Operation = "orders:cancel"
	OpListPendingOrders  Operation = "orders:list-pending"
	OpRateOrder          Operation = "orders:rate"
	OpManageUsers        Operation = "users:manage"
	OpViewReports        Operation = "reports:view"
	OpViewNotifications  Operation = "notifications:view"
	OpSubscribeOrderFeed Operation = "orders:subscribe"
)

var everyone = []model.Role{model.RoleAdmin, model.RoleEmployee, model.RoleWorker, model.RoleManagement}

var policy = map[Operation][]model.Role{
	OpViewProfile:        everyone,
	OpViewCatalog:        everyone,
	OpManageCatalog:      {model.RoleAdmin},
	OpCreateOrder:        {model.RoleEmployee, model.RoleAdmin},
	OpListOrders:         {model.RoleAdmin, model.RoleManagement, model.RoleWorker},
	OpListOwnOrders:      {model.RoleEmployee},
	OpViewOrder:          everyone,
	OpUpdateOrderStatus:  {model.RoleWorker, model.RoleAdmin},
	OpCancelOrder:        {model.RoleEmployee},
	OpListPendingOrders:  {model.RoleWorker, model.RoleAdmin},
	OpRateOrder:          {model.RoleEmployee},
	OpManageUsers:        {model.RoleAdmin},
	OpViewReports:        {model.RoleAdmin, model.RoleManagement},
	OpViewNotifications:  everyone,
	OpSubscribeOrderFeed: everyone,
}

// Allowed сообщает, может ли роль выполнить операцию. Неизвестные операции запрещены.
func Allowed(role model.Role, op Operation) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}

// ReceivesSharedFeed сообщает, подписана ли роль на общий канал заказов.
func ReceivesSharedFeed(role model.Role) bool {
	return Allowed(role, OpListOrders)
}
