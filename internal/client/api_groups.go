package client

import (
	"context"

	"github.com/dmaia/echochat/internal/chat"
)

// CreateGroup creates a group owned by the active user.
func (c *Controller) CreateGroup(ctx context.Context, gp chat.GroupProfile) (*chat.GroupInfo, error) {
	r, err := c.SendCmd(ctx, chat.NewGroup{GroupProfile: gp})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespGroupCreated || r.GroupInfo == nil {
		return nil, respError("creating group", r)
	}
	c.processReceivedMsg(r)
	return r.GroupInfo, nil
}

// AddMember invites a contact into a group with the given role.
func (c *Controller) AddMember(ctx context.Context, groupID, contactID int64, role chat.GroupMemberRole) (*chat.GroupMember, error) {
	r, err := c.SendCmd(ctx, chat.APIAddMember{GroupID: groupID, ContactID: contactID, Role: role})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespSentGroupInvitation {
		return nil, respError("adding member", r)
	}
	return r.Member, nil
}

// JoinGroup accepts a received group invitation.
func (c *Controller) JoinGroup(ctx context.Context, groupID int64) (*chat.GroupInfo, error) {
	r, err := c.SendCmd(ctx, chat.APIJoinGroup{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespUserAcceptedGroupSent || r.GroupInfo == nil {
		return nil, respError("joining group", r)
	}
	c.processReceivedMsg(r)
	return r.GroupInfo, nil
}

// RemoveMember removes a member from a group the user administers.
func (c *Controller) RemoveMember(ctx context.Context, groupID, memberID int64) error {
	r, err := c.SendCmd(ctx, chat.APIRemoveMember{GroupID: groupID, MemberID: memberID})
	if err != nil {
		return err
	}
	if r.Type != chat.RespUserDeletedMember {
		return respError("removing member", r)
	}
	c.processReceivedMsg(r)
	return nil
}

// LeaveGroup leaves a group; the conversation stays until deleted.
func (c *Controller) LeaveGroup(ctx context.Context, groupID int64) error {
	r, err := c.SendCmd(ctx, chat.APILeaveGroup{GroupID: groupID})
	if err != nil {
		return err
	}
	if r.Type != chat.RespLeftMemberUser {
		return respError("leaving group", r)
	}
	c.processReceivedMsg(r)
	return nil
}

// ListMembers lists a group's members.
func (c *Controller) ListMembers(ctx context.Context, groupID int64) ([]chat.GroupMember, error) {
	r, err := c.SendCmd(ctx, chat.APIListMembers{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespGroupMembers || r.Group == nil {
		return nil, respError("listing members", r)
	}
	return r.Group.Members, nil
}

// UpdateGroupProfile replaces a group's profile.
func (c *Controller) UpdateGroupProfile(ctx context.Context, groupID int64, gp chat.GroupProfile) (*chat.GroupInfo, error) {
	r, err := c.SendCmd(ctx, chat.APIUpdateGroupProfile{GroupID: groupID, GroupProfile: gp})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespGroupUpdated || r.ToGroup == nil {
		return nil, respError("updating group profile", r)
	}
	c.processReceivedMsg(r)
	return r.ToGroup, nil
}

// GroupMemberInfo fetches connection stats for one member.
func (c *Controller) GroupMemberInfo(ctx context.Context, groupID, memberID int64) (*chat.ConnectionStats, error) {
	r, err := c.SendCmd(ctx, chat.APIGroupMemberInfo{GroupID: groupID, MemberID: memberID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespGroupMemberInfo {
		return nil, respError("loading member info", r)
	}
	return r.ConnectionStats, nil
}
