package client

import (
	"context"

	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/prefs"
)

// UpdateProfile replaces the active user's shared profile. A no-change
// reply returns the current profile with no error.
func (c *Controller) UpdateProfile(ctx context.Context, p chat.Profile) (*chat.Profile, error) {
	r, err := c.SendCmd(ctx, chat.APIUpdateProfile{Profile: p})
	if err != nil {
		return nil, err
	}
	switch r.Type {
	case chat.RespUserProfileUpdated:
		c.processReceivedMsg(r)
		return r.ToProfile, nil
	case chat.RespUserProfileNoChange:
		return &p, nil
	}
	return nil, respError("updating profile", r)
}

// HideUser protects a profile with a view password and refreshes the user
// list so the hidden flag is visible.
func (c *Controller) HideUser(ctx context.Context, userID int64, viewPwd string) error {
	r, err := c.SendCmd(ctx, chat.APIHideUser{UserID: userID, ViewPwd: viewPwd})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("hiding user", r)
	}
	_, err = c.ListUsers(ctx)
	return err
}

// UnhideUser removes a profile's view password.
func (c *Controller) UnhideUser(ctx context.Context, userID int64, viewPwd string) error {
	r, err := c.SendCmd(ctx, chat.APIUnhideUser{UserID: userID, ViewPwd: viewPwd})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("unhiding user", r)
	}
	_, err = c.ListUsers(ctx)
	return err
}

// ListContacts lists the active user's contacts.
func (c *Controller) ListContacts(ctx context.Context) ([]chat.Contact, error) {
	r, err := c.SendCmd(ctx, chat.ListContacts{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespContactsList {
		return nil, respError("listing contacts", r)
	}
	return r.Contacts, nil
}

// ContactInfo fetches connection stats for a contact.
func (c *Controller) ContactInfo(ctx context.Context, contactID int64) (*chat.ConnectionStats, error) {
	r, err := c.SendCmd(ctx, chat.APIContactInfo{ContactID: contactID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespContactInfo {
		return nil, respError("loading contact info", r)
	}
	return r.ConnectionStats, nil
}

// SetAddressAutoAccept toggles auto-accepting requests sent to the user's
// contact address.
func (c *Controller) SetAddressAutoAccept(ctx context.Context, on bool) error {
	r, err := c.SendCmd(ctx, chat.AddressAutoAccept{On: on})
	if err != nil {
		return err
	}
	if r.Type != chat.RespUserContactLinkUpdated {
		return respError("updating auto-accept", r)
	}
	return nil
}

// GetSMPServers lists the user's configured messaging relays; empty means
// the preset servers are in use.
func (c *Controller) GetSMPServers(ctx context.Context) ([]string, error) {
	r, err := c.SendCmd(ctx, chat.GetUserSMPServers{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespUserSMPServers {
		return nil, respError("listing servers", r)
	}
	return r.SMPServers, nil
}

// SetSMPServers replaces the user's messaging relays; an empty slice resets
// to the preset servers.
func (c *Controller) SetSMPServers(ctx context.Context, servers []string) error {
	r, err := c.SendCmd(ctx, chat.SetUserSMPServers{Servers: servers})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("setting servers", r)
	}
	return nil
}

// GetNetworkConfig reads the engine network configuration.
func (c *Controller) GetNetworkConfig(ctx context.Context) (*chat.NetCfg, error) {
	r, err := c.SendCmd(ctx, chat.APIGetNetworkConfig{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespNetworkConfig || r.NetCfg == nil {
		return nil, respError("loading network config", r)
	}
	return r.NetCfg, nil
}

// SetNetworkConfig replaces the engine network configuration. Timeouts are
// also persisted so the next session restores them before the engine starts.
func (c *Controller) SetNetworkConfig(ctx context.Context, cfg chat.NetCfg) error {
	r, err := c.SendCmd(ctx, chat.APISetNetworkConfig{Config: cfg})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("setting network config", r)
	}
	if err := c.prefs.SetInt64(prefs.KeyNetworkTCPTimeout, cfg.TCPTimeout); err != nil {
		return err
	}
	return c.prefs.SetInt64(prefs.KeyNetworkConnectTimeout, cfg.TCPConnectTimeout)
}
