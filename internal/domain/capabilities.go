package domain

// Action identifies a role-gated operation on the ticket surface.
type Action string

const (
	ActionTicketCreate       Action = "ticket.create"
	ActionTicketListMine     Action = "ticket.list.mine"
	ActionTicketListAll      Action = "ticket.list.all"
	ActionTicketListAssigned Action = "ticket.list.assigned"
	ActionTicketAssign       Action = "ticket.assign"
	ActionTicketExecute      Action = "ticket.execute"
	ActionTicketDelete       Action = "ticket.delete"
)

// capabilities is the closed role → action table. Object-level checks (the
// execute caller must be the ticket's executor) live in the workflow service.
var capabilities = map[Role]map[Action]struct{}{
	RoleRequester: {
		ActionTicketCreate:   {},
		ActionTicketListMine: {},
	},
	RoleOperator: {
		ActionTicketListAll: {},
		ActionTicketAssign:  {},
		ActionTicketDelete:  {},
	},
	RoleExecutor: {
		ActionTicketListAssigned: {},
		ActionTicketExecute:      {},
	},
}

// Can reports whether the role is allowed to perform the action.
func (r Role) Can(action Action) bool {
	allowed, ok := capabilities[r]
	if !ok {
		return false
	}
	_, ok = allowed[action]
	return ok
}
