package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/sikap/core"
	"github.com/trezcool/sikap/core/staff"
)

// addStaff updates or creates a staff.Staff, keyed by NIP.
func (cli *commandLine) addStaff(nip, name, uname, email, pwd string, isAdmin bool) error {
	nip = core.CleanString(nip)
	name = core.CleanString(name)
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	isActive := true

	stf, err := cli.stfRepo.GetStaffByNIP(nip)
	if err != nil {
		if err != staff.ErrNotFound {
			return err
		}
		stf = staff.Staff{
			ID:        uuid.New().String(),
			NIP:       nip,
			Name:      name,
			Username:  uname,
			Email:     email,
			Roles:     []string{staff.RoleTeacher},
			IsActive:  &isActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if isAdmin {
			stf.Roles = staff.AllRoles
		}
		if err := stf.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.stfRepo.CreateStaff(stf)
		return err
	}

	stf.Name = name
	stf.Username = uname
	stf.Email = email
	if isAdmin {
		stf.Roles = staff.AllRoles
	}
	stf.UpdatedAt = now
	if err := stf.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.stfRepo.UpdateStaff(stf, &isActive)
	return err
}
