package service

import (
	"context"
	"sort"

	"github.com/hotelops/backend/internal/db"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/utils"
)

// PickAssignee orders candidates by open-ticket load and splits the two least loaded with a
// hash of the ticket id, so retries of the same ticket land on the same person.
func PickAssignee(ticketID string, candidates []models.StaffMember) (models.StaffMember, []models.StaffMember) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].OpenTickets == candidates[j].OpenTickets {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].OpenTickets < candidates[j].OpenTickets
	})

	if len(candidates) <= 2 {
		idx := int(utils.HashStringToUint64(ticketID) % uint64(len(candidates)))
		return candidates[idx], candidates
	}

	top2 := candidates[:2]
	idx := int(utils.HashStringToUint64(ticketID) % 2)
	return top2[idx], top2
}

type Assignment struct {
	AssigneeID *string
	Department models.Department
	Fallback   bool
}

// assignInTx picks from the routed department and falls back to MANAGEMENT when that department
// has nobody on shift. It reads through tx so the load it sees is the load the insert commits against.
func assignInTx(ctx context.Context, tx db.TicketTx, hotelID string, department models.Department, ticketID string) (Assignment, error) {
	staff, err := tx.ListDepartmentStaff(ctx, hotelID, department)
	if err != nil {
		return Assignment{}, err
	}
	if len(staff) > 0 {
		picked, _ := PickAssignee(ticketID, staff)
		return Assignment{AssigneeID: &picked.ID, Department: department}, nil
	}
	if department == models.DepartmentManagement {
		return Assignment{Department: department}, nil
	}

	managers, err := tx.ListDepartmentStaff(ctx, hotelID, models.DepartmentManagement)
	if err != nil {
		return Assignment{}, err
	}
	if len(managers) == 0 {
		return Assignment{Department: department}, nil
	}
	picked, _ := PickAssignee(ticketID, managers)
	return Assignment{AssigneeID: &picked.ID, Department: department, Fallback: true}, nil
}
