package bootstrap

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"

	"chordring/internal/config"
)

// Route53 discovers and registers peer addresses through a single TXT
// record set in a hosted zone: every live node's advertised address is
// one quoted value in that record set. This gives a Chord ring rendezvous
// discovery without a dedicated service registry, following the teacher's
// bootstrap.NewRoute53Bootstrap wiring in cmd/node/main.go.
type Route53 struct {
	client     *route53.Client
	hostedZone string
	recordName string
	ttl        int64
}

// NewRoute53Bootstrap builds a Route53-backed Bootstrap from cfg, loading
// AWS credentials the standard SDK way (environment, shared config,
// instance role — whatever config.LoadDefaultConfig resolves).
func NewRoute53Bootstrap(ctx context.Context, cfg config.Route53Config) (*Route53, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}
	return &Route53{
		client:     route53.NewFromConfig(awsCfg),
		hostedZone: cfg.HostedZoneID,
		recordName: cfg.RecordName,
		ttl:        cfg.TTL,
	}, nil
}

// Discover lists the current TXT record set and returns every address it
// names. An empty or not-yet-created record set means "no ring exists
// yet" and is not an error.
func (r *Route53) Discover(ctx context.Context) ([]string, error) {
	out, err := r.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    &r.hostedZone,
		StartRecordName: &r.recordName,
		StartRecordType: r53types.RRTypeTxt,
		MaxItems:        awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: list record sets: %w", err)
	}
	for _, rs := range out.ResourceRecordSets {
		if rs.Name == nil || !strings.EqualFold(strings.TrimSuffix(*rs.Name, "."), strings.TrimSuffix(r.recordName, ".")) {
			continue
		}
		return unquoteValues(rs.ResourceRecords), nil
	}
	return nil, nil
}

// Register adds addr to the TXT record set, upserting the whole set with
// addr merged into whatever was already there.
func (r *Route53) Register(ctx context.Context, addr string) error {
	existing, err := r.Discover(ctx)
	if err != nil {
		return err
	}
	merged := appendUnique(existing, addr)
	return r.upsert(ctx, merged)
}

// Deregister removes addr from the TXT record set.
func (r *Route53) Deregister(ctx context.Context, addr string) error {
	existing, err := r.Discover(ctx)
	if err != nil {
		return err
	}
	remaining := removeValue(existing, addr)
	if len(remaining) == 0 {
		return r.delete(ctx)
	}
	return r.upsert(ctx, remaining)
}

func (r *Route53) upsert(ctx context.Context, addrs []string) error {
	_, err := r.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: &r.hostedZone,
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{{
				Action:            r53types.ChangeActionUpsert,
				ResourceRecordSet: r.recordSet(addrs),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("bootstrap: upsert record set: %w", err)
	}
	return nil
}

func (r *Route53) delete(ctx context.Context) error {
	_, err := r.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: &r.hostedZone,
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{{
				Action:            r53types.ChangeActionDelete,
				ResourceRecordSet: r.recordSet(nil),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("bootstrap: delete record set: %w", err)
	}
	return nil
}

func (r *Route53) recordSet(addrs []string) *r53types.ResourceRecordSet {
	records := make([]r53types.ResourceRecord, 0, len(addrs))
	for _, a := range addrs {
		v := fmt.Sprintf("%q", a)
		records = append(records, r53types.ResourceRecord{Value: &v})
	}
	ttl := r.ttl
	name := r.recordName
	return &r53types.ResourceRecordSet{
		Name:            &name,
		Type:            r53types.RRTypeTxt,
		TTL:             &ttl,
		ResourceRecords: records,
	}
}

func unquoteValues(records []r53types.ResourceRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Value == nil {
			continue
		}
		out = append(out, strings.Trim(*rec.Value, `"`))
	}
	return out
}

func appendUnique(addrs []string, addr string) []string {
	for _, a := range addrs {
		if a == addr {
			return addrs
		}
	}
	return append(addrs, addr)
}

func removeValue(addrs []string, addr string) []string {
	out := addrs[:0]
	for _, a := range addrs {
		if a != addr {
			out = append(out, a)
		}
	}
	return out
}

func awsInt32(v int32) *int32 { return &v }
